package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestIdentityRejectsMissingHeader(t *testing.T) {
	handler := Identity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestIdentityRejectsMalformedUserID(t *testing.T) {
	handler := Identity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with malformed identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("X-User-Id", "12345")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestIdentityInjectsUserAndRole(t *testing.T) {
	userID := uuid.NewString()
	var gotUser, gotRole string
	handler := Identity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("X-User-Role", "provider")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != userID {
		t.Fatalf("expected user %s got %s", userID, gotUser)
	}
	if gotRole != "provider" {
		t.Fatalf("expected role provider got %s", gotRole)
	}
}

func TestIdentityRoleOptional(t *testing.T) {
	handler := Identity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role := RoleFromContext(r.Context()); role != "" {
			t.Fatalf("expected empty role got %q", role)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
