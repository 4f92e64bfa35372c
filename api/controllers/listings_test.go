package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/api/middleware"
	"github.com/mealbridge/mealbridge-backend/internal/ledger"
	"github.com/mealbridge/mealbridge-backend/internal/listings"
	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
)

type fakeListingService struct {
	createFn func(ctx context.Context, input listings.CreateListingInput) (*listings.ListingView, error)
	cancelFn func(ctx context.Context, id, providerID uuid.UUID, reason string) (*listings.ListingView, error)
	listFn   func(ctx context.Context, params listings.ListParams) (*listings.ListResult, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*listings.ListingView, error)
}

func (f *fakeListingService) Create(ctx context.Context, input listings.CreateListingInput) (*listings.ListingView, error) {
	if f.createFn != nil {
		return f.createFn(ctx, input)
	}
	return &listings.ListingView{}, nil
}

func (f *fakeListingService) Get(ctx context.Context, id uuid.UUID) (*listings.ListingView, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return &listings.ListingView{}, nil
}

func (f *fakeListingService) List(ctx context.Context, params listings.ListParams) (*listings.ListResult, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return &listings.ListResult{}, nil
}

func (f *fakeListingService) Cancel(ctx context.Context, id, providerID uuid.UUID, reason string) (*listings.ListingView, error) {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, id, providerID, reason)
	}
	return &listings.ListingView{}, nil
}

func (f *fakeListingService) Delete(ctx context.Context, id, providerID uuid.UUID) error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test-controllers", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func authedRequest(method, target, body string, actorID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithUserID(req.Context(), actorID.String()))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateListingPassesParsedInput(t *testing.T) {
	providerID := uuid.New()
	var captured listings.CreateListingInput
	svc := &fakeListingService{
		createFn: func(ctx context.Context, input listings.CreateListingInput) (*listings.ListingView, error) {
			captured = input
			return &listings.ListingView{}, nil
		},
	}

	body := `{"title":"Trays of rice","total_quantity":"12.5","unit":"portions","freshness":"freshly_cooked"}`
	req := authedRequest(http.MethodPost, "/api/v1/listings", body, providerID)
	resp := httptest.NewRecorder()
	CreateListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.ProviderID != providerID {
		t.Fatalf("expected provider %s got %s", providerID, captured.ProviderID)
	}
	if captured.TotalQuantity.String() != "12.5" {
		t.Fatalf("expected quantity 12.5 got %s", captured.TotalQuantity)
	}
	if captured.Unit != "portions" || captured.Freshness != "freshly_cooked" {
		t.Fatalf("unexpected unit/freshness: %s/%s", captured.Unit, captured.Freshness)
	}
}

func TestCreateListingRejectsUnknownUnit(t *testing.T) {
	svc := &fakeListingService{
		createFn: func(ctx context.Context, input listings.CreateListingInput) (*listings.ListingView, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	body := `{"title":"Trays of rice","total_quantity":"12.5","unit":"crates","freshness":"fresh"}`
	req := authedRequest(http.MethodPost, "/api/v1/listings", body, uuid.New())
	resp := httptest.NewRecorder()
	CreateListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateListingRejectsNonNumericQuantity(t *testing.T) {
	body := `{"title":"Trays of rice","total_quantity":"a lot","unit":"kg","freshness":"fresh"}`
	req := authedRequest(http.MethodPost, "/api/v1/listings", body, uuid.New())
	resp := httptest.NewRecorder()
	CreateListing(&fakeListingService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateListingRequiresIdentity(t *testing.T) {
	body := `{"title":"Trays of rice","total_quantity":"1","unit":"kg","freshness":"fresh"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CreateListing(&fakeListingService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListListingsParsesFilters(t *testing.T) {
	providerID := uuid.New()
	var captured listings.ListParams
	svc := &fakeListingService{
		listFn: func(ctx context.Context, params listings.ListParams) (*listings.ListResult, error) {
			captured = params
			return &listings.ListResult{}, nil
		},
	}

	target := "/api/v1/listings?providerId=" + providerID.String() + "&status=available,partially_claimed&limit=25"
	req := authedRequest(http.MethodGet, target, "", uuid.New())
	resp := httptest.NewRecorder()
	ListListings(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.ProviderID == nil || *captured.ProviderID != providerID {
		t.Fatalf("expected provider filter %s got %v", providerID, captured.ProviderID)
	}
	if len(captured.Statuses) != 2 {
		t.Fatalf("expected 2 status filters got %d", len(captured.Statuses))
	}
	if captured.Limit != 25 {
		t.Fatalf("expected limit 25 got %d", captured.Limit)
	}
}

func TestListListingsRejectsUnknownStatus(t *testing.T) {
	req := authedRequest(http.MethodGet, "/api/v1/listings?status=simmering", "", uuid.New())
	resp := httptest.NewRecorder()
	ListListings(&fakeListingService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelListingTrimsReason(t *testing.T) {
	providerID := uuid.New()
	listingID := uuid.New()
	var capturedReason string
	svc := &fakeListingService{
		cancelFn: func(ctx context.Context, id, provider uuid.UUID, reason string) (*listings.ListingView, error) {
			if id != listingID || provider != providerID {
				t.Fatalf("unexpected ids %s/%s", id, provider)
			}
			capturedReason = reason
			return &listings.ListingView{}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/cancel", `{"reason":"  kitchen closed early  "}`, providerID)
	req = withURLParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	CancelListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if capturedReason != "kitchen closed early" {
		t.Fatalf("expected trimmed reason got %q", capturedReason)
	}
}

func TestGetListingHidesClaimDetails(t *testing.T) {
	listingID := uuid.New()
	receiverID := uuid.New()
	code := "123456"
	notes := "meet me at the loading dock"
	svc := &fakeListingService{
		getFn: func(ctx context.Context, id uuid.UUID) (*listings.ListingView, error) {
			listing := models.Listing{
				ID:            id,
				ProviderID:    uuid.New(),
				Title:         "Trays of rice",
				TotalQuantity: decimal.NewFromInt(10),
				Unit:          enums.UnitKilograms,
				Freshness:     enums.FreshnessFresh,
				Priority:      enums.PriorityMedium,
				Status:        enums.ListingStatusPartiallyClaimed,
				Claims: []models.Claim{{
					ID:                uuid.New(),
					ListingID:         id,
					ReceiverID:        receiverID,
					RequestedQuantity: decimal.NewFromInt(4),
					Status:            enums.ClaimStatusApproved,
					PickupCode:        &code,
					Notes:             &notes,
				}},
			}
			return &listings.ListingView{Listing: listing, Summary: ledger.Summarize(listing)}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/listings/"+listingID.String(), "", uuid.New())
	req = withURLParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	GetListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	if strings.Contains(body, code) {
		t.Fatalf("pickup code leaked in listing read: %s", body)
	}
	if strings.Contains(body, receiverID.String()) {
		t.Fatalf("receiver identity leaked in listing read: %s", body)
	}
	if strings.Contains(body, notes) {
		t.Fatalf("claim notes leaked in listing read: %s", body)
	}
	// The quantity picture still comes through, derived from those claims.
	if !strings.Contains(body, `"claimed_quantity":"4"`) || !strings.Contains(body, `"remaining_quantity":"6"`) {
		t.Fatalf("expected quantity summary in listing read: %s", body)
	}
}

func TestGetListingRejectsMalformedID(t *testing.T) {
	req := authedRequest(http.MethodGet, "/api/v1/listings/nope", "", uuid.New())
	req = withURLParam(req, "listingId", "nope")
	resp := httptest.NewRecorder()
	GetListing(&fakeListingService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
