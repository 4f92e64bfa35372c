package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mealbridge/mealbridge-backend/api/controllers"
	"github.com/mealbridge/mealbridge-backend/internal/claims"
	"github.com/mealbridge/mealbridge-backend/internal/listings"
	"github.com/mealbridge/mealbridge-backend/pkg/config"
	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
	"github.com/mealbridge/mealbridge-backend/pkg/redis"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

type stubListingService struct {
	listFn func(ctx context.Context, params listings.ListParams) (*listings.ListResult, error)
}

func (s stubListingService) Create(ctx context.Context, input listings.CreateListingInput) (*listings.ListingView, error) {
	return &listings.ListingView{}, nil
}

func (s stubListingService) Get(ctx context.Context, id uuid.UUID) (*listings.ListingView, error) {
	return &listings.ListingView{}, nil
}

func (s stubListingService) List(ctx context.Context, params listings.ListParams) (*listings.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &listings.ListResult{}, nil
}

func (s stubListingService) Cancel(ctx context.Context, id, providerID uuid.UUID, reason string) (*listings.ListingView, error) {
	return &listings.ListingView{}, nil
}

func (s stubListingService) Delete(ctx context.Context, id, providerID uuid.UUID) error {
	return nil
}

type stubClaimService struct {
	approveFn func(ctx context.Context, input claims.ApproveClaimInput) (*models.Claim, error)
}

func (s stubClaimService) Create(ctx context.Context, input claims.CreateClaimInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (s stubClaimService) Approve(ctx context.Context, input claims.ApproveClaimInput) (*models.Claim, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, input)
	}
	return &models.Claim{}, nil
}

func (s stubClaimService) Reject(ctx context.Context, input claims.RejectClaimInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (s stubClaimService) VerifyPickupCode(ctx context.Context, input claims.VerifyPickupInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (s stubClaimService) CompleteDelivery(ctx context.Context, claimID, providerID uuid.UUID) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (s stubClaimService) Cancel(ctx context.Context, input claims.CancelClaimInput) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (s stubClaimService) Get(ctx context.Context, id, actorID uuid.UUID) (*models.Claim, error) {
	return &models.Claim{}, nil
}

func (s stubClaimService) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]models.Claim, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(cfg *config.Config, readiness map[string]controllers.Pinger) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		(*redis.Client)(nil),
		readiness,
		stubListingService{},
		stubClaimService{},
	)
}

func withIdentity(req *http.Request) *http.Request {
	req.Header.Set("X-User-Id", uuid.NewString())
	req.Header.Set("X-User-Role", "provider")
	return req
}

func TestHealthLiveReportsEnv(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if env := resp.Header().Get("X-MealBridge-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestHealthReadyFailsWhenDependencyDown(t *testing.T) {
	deps := map[string]controllers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: fmt.Errorf("connection refused")},
	}
	router := newTestRouter(testConfig(), deps)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when dependency down got %d", resp.Code)
	}
}

func TestHealthReadySucceedsWhenDependenciesUp(t *testing.T) {
	deps := map[string]controllers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{},
	}
	router := newTestRouter(testConfig(), deps)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 when dependencies up got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingIdentity(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMalformedIdentity(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("X-User-Id", "not-a-uuid")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed identity got %d", resp.Code)
	}
}

func TestListListingsSucceedsWithIdentity(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for listing page got %d", resp.Code)
	}
}

func TestGetListingRejectsMalformedID(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/listings/not-a-uuid", nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed listing id got %d", resp.Code)
	}
}

func TestCreateClaimRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/claims", strings.NewReader("{")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestCreateClaimSucceedsWithValidPayload(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	body := fmt.Sprintf(`{"listing_id":%q,"requested_quantity":"2.5"}`, uuid.NewString())
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/claims", strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid claim got %d", resp.Code)
	}
}

func TestApproveClaimRouteWired(t *testing.T) {
	approved := false
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	router := NewRouter(
		testConfig(),
		logg,
		(*redis.Client)(nil),
		nil,
		stubListingService{},
		stubClaimService{
			approveFn: func(ctx context.Context, input claims.ApproveClaimInput) (*models.Claim, error) {
				approved = true
				return &models.Claim{}, nil
			},
		},
	)

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/claims/"+uuid.NewString()+"/approve", strings.NewReader("{}")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for approve got %d", resp.Code)
	}
	if !approved {
		t.Fatal("expected approve handler to reach the service")
	}
}
