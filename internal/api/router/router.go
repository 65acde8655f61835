package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/schedule-availability/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/schedule-availability/internal/http/middleware"
	"github.com/wolfman30/schedule-availability/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Schedule           *handlers.ScheduleHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter guards /schedule routes when set.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.Schedule.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	var schedule http.Handler = cfg.Schedule.Routes()
	if cfg.RateLimiter != nil {
		schedule = cfg.RateLimiter.Middleware(schedule)
	}
	r.Mount("/schedule", schedule)

	return r
}
