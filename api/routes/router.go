package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mealbridge/mealbridge-backend/api/controllers"
	"github.com/mealbridge/mealbridge-backend/api/middleware"
	"github.com/mealbridge/mealbridge-backend/internal/claims"
	"github.com/mealbridge/mealbridge-backend/internal/listings"
	"github.com/mealbridge/mealbridge-backend/pkg/config"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
	"github.com/mealbridge/mealbridge-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	readiness map[string]controllers.Pinger,
	listingService listings.Service,
	claimService claims.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		idemStore = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", controllers.CreateListing(listingService, logg))
			r.Get("/", controllers.ListListings(listingService, logg))
			r.Get("/{listingId}", controllers.GetListing(listingService, logg))
			r.Post("/{listingId}/cancel", controllers.CancelListing(listingService, logg))
			r.Delete("/{listingId}", controllers.DeleteListing(listingService, logg))
		})

		r.Route("/claims", func(r chi.Router) {
			r.Post("/", controllers.CreateClaim(claimService, logg))
			r.Get("/", controllers.ListClaims(claimService, logg))
			r.Get("/{claimId}", controllers.GetClaim(claimService, logg))
			r.Post("/{claimId}/approve", controllers.ApproveClaim(claimService, logg))
			r.Post("/{claimId}/reject", controllers.RejectClaim(claimService, logg))
			r.Post("/{claimId}/verify-pickup", controllers.VerifyPickup(claimService, logg))
			r.Post("/{claimId}/complete", controllers.CompleteClaim(claimService, logg))
			r.Post("/{claimId}/cancel", controllers.CancelClaim(claimService, logg))
		})
	})

	return r
}
