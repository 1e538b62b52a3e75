package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vedran77/receptionist/internal/logging"
	"github.com/vedran77/receptionist/internal/transport/http/middleware"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Assistants *AssistantHandler
	// Events serves the websocket endpoint. Optional.
	Events http.Handler

	Tokens      middleware.TokenVerifier
	Counter     middleware.Counter
	RateLimit   middleware.RateLimitConfig
	CORSOrigins []string
	Log         logging.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := middleware.Auth(cfg.Tokens, cfg.Log)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.Counter != nil {
					r.Use(middleware.RateLimit(cfg.Counter, cfg.RateLimit, "auth", cfg.Log))
				}
				r.Post("/register", cfg.Auth.Register)
				r.Post("/login", cfg.Auth.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/profile", cfg.Auth.GetProfile)
				r.Patch("/profile", cfg.Auth.UpdateProfile)
				r.Post("/profile/logo", cfg.Auth.UploadLogo)
			})
		})

		r.Route("/assistants", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cfg.Assistants.List)
			r.Post("/", cfg.Assistants.Create)
			r.Get("/{id}", cfg.Assistants.Get)
			r.Patch("/{id}", cfg.Assistants.Update)
		})

		if cfg.Events != nil {
			r.Handle("/ws", cfg.Events)
		}
	})

	return r
}
