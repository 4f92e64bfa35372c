package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mealbridge/mealbridge-backend/api/responses"
	pkgerrors "github.com/mealbridge/mealbridge-backend/pkg/errors"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
)

const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

// Identity extracts the authenticated actor from the trusted gateway headers.
// Authentication itself happens upstream; requests reaching this service
// without an actor header are rejected.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(headerUserID))
			if userID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor identity"))
				return
			}
			if _, err := uuid.Parse(userID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed actor identity"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if role := strings.TrimSpace(r.Header.Get(headerUserRole)); role != "" {
				ctx = WithRole(ctx, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
