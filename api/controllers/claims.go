package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/api/responses"
	"github.com/mealbridge/mealbridge-backend/api/validators"
	"github.com/mealbridge/mealbridge-backend/internal/claims"
	pkgerrors "github.com/mealbridge/mealbridge-backend/pkg/errors"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
)

type createClaimRequest struct {
	ListingID         string  `json:"listing_id" validate:"required,uuid"`
	RequestedQuantity string  `json:"requested_quantity" validate:"required"`
	Notes             *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type approveClaimRequest struct {
	ApprovedQuantity *string `json:"approved_quantity,omitempty"`
}

type rejectClaimRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type verifyPickupRequest struct {
	Code string `json:"code" validate:"required,min=4,max=6,numeric"`
}

type cancelClaimRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// CreateClaim opens a claim against a listing for the authenticated receiver.
func CreateClaim(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}

		receiverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createClaimRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := uuid.Parse(req.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing_id"))
			return
		}

		quantity, err := decimal.NewFromString(strings.TrimSpace(req.RequestedQuantity))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid requested_quantity"))
			return
		}

		claim, err := svc.Create(r.Context(), claims.CreateClaimInput{
			ListingID:         listingID,
			ReceiverID:        receiverID,
			RequestedQuantity: quantity,
			Notes:             req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimResponse(claim))
	}
}

// GetClaim returns one claim. Only the claim's receiver or the listing's
// provider may read it.
func GetClaim(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "claimId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid claim id"))
			return
		}

		claim, err := svc.Get(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimResponse(claim))
	}
}

// ListClaims returns the authenticated receiver's claims.
func ListClaims(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}

		receiverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByReceiver(r.Context(), receiverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimListResponse(rows))
	}
}

// ApproveClaim lets the listing provider approve a pending claim, optionally
// trimming the approved amount below what was requested.
func ApproveClaim(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}

		providerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "claimId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid claim id"))
			return
		}

		var req approveClaimRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := claims.ApproveClaimInput{ClaimID: id, ProviderID: providerID}
		if req.ApprovedQuantity != nil {
			quantity, err := decimal.NewFromString(strings.TrimSpace(*req.ApprovedQuantity))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid approved_quantity"))
				return
			}
			input.ApprovedQuantity = &quantity
		}

		claim, err := svc.Approve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newApprovedClaimResponse(claim))
	}
}

// RejectClaim declines a pending claim with a reason.
func RejectClaim(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}

		providerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "claimId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid claim id"))
			return
		}

		var req rejectClaimRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claim, err := svc.Reject(r.Context(), claims.RejectClaimInput{
			ClaimID:    id,
			ProviderID: providerID,
			Reason:     validators.SanitizeString(req.Reason, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimResponse(claim))
	}
}

// VerifyPickup checks the pickup code presented at handoff.
func VerifyPickup(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}

		providerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "claimId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid claim id"))
			return
		}

		var req verifyPickupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claim, err := svc.VerifyPickupCode(r.Context(), claims.VerifyPickupInput{
			ClaimID:    id,
			ProviderID: providerID,
			Code:       strings.TrimSpace(req.Code),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimResponse(claim))
	}
}

// CompleteClaim marks a picked-up claim as delivered.
func CompleteClaim(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}

		providerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "claimId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid claim id"))
			return
		}

		claim, err := svc.CompleteDelivery(r.Context(), id, providerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimResponse(claim))
	}
}

// CancelClaim cancels an active claim. The receiver or the listing's
// provider may cancel; the service enforces which.
func CancelClaim(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claims service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "claimId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid claim id"))
			return
		}

		var req cancelClaimRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claim, err := svc.Cancel(r.Context(), claims.CancelClaimInput{
			ClaimID: id,
			ActorID: actor,
			Reason:  validators.SanitizeString(req.Reason, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newClaimResponse(claim))
	}
}
