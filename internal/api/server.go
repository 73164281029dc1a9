package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/sportscanner/app-crawlers/internal/api/handler"
	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/db"
	"github.com/sportscanner/app-crawlers/internal/geo"
	"github.com/sportscanner/app-crawlers/internal/query"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *db.Pool, cat *catalogue.Catalogue, search *query.Service, geocoder *geo.Geocoder, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, cat, search, geocoder, cfg)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Venues
		r.Get("/venues", h.GetVenues)
		r.Get("/venues/near", h.GetVenuesNear)

		// Geolocation
		r.Get("/geolocation/validate-postcode", h.ValidatePostcode)

		// Search
		r.Post("/search/{sport}", h.Search)
		r.Post("/search/{sport}/{compositeKey}", h.SearchVenue)
	})

	return r
}
