package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"ai-hub/internal/middleware"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	// RequestTimeout bounds each request; it must exceed the provider timeout.
	RequestTimeout time.Duration
	RateLimit      middleware.RateLimitConfig
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Use(middleware.RateLimit(cfg.RateLimit))

	return &Router{r}
}

// RegisterAPIRoutes mounts every /api route. Notes and roadmap require a token.
func (r *Router) RegisterAPIRoutes(h *Handlers, tokens middleware.TokenParser) {
	requireAuth := middleware.RequireAuth(tokens)

	r.Route("/api", func(api chi.Router) {
		api.Post("/generate", h.Generate)
		api.Post("/codegen", h.CodeGen)
		api.Post("/debug", h.Debug)
		api.Post("/analyze-resume", h.AnalyzeResume)
		api.Post("/summarize-text", h.SummarizeText)
		api.Post("/summarize-video", h.SummarizeVideo)
		api.Post("/contact", h.Contact)

		api.Route("/auth", func(a chi.Router) {
			a.Post("/signup", h.Signup)
			a.Post("/login", h.Login)
			a.With(requireAuth).Get("/me", h.Me)
			a.Get("/google", h.GoogleLogin)
			a.Get("/google/callback", h.GoogleCallback)
		})

		api.Route("/notes", func(n chi.Router) {
			n.Use(requireAuth)
			n.Get("/", h.ListNotes)
			n.Post("/", h.CreateNote)
			n.Delete("/{id}", h.DeleteNote)
		})

		api.Route("/roadmap", func(rm chi.Router) {
			rm.Use(requireAuth)
			rm.Get("/", h.ListRoadmap)
			rm.Post("/", h.CreateRoadmapItem)
			rm.Post("/generate", h.GenerateRoadmap)
			rm.Put("/{id}", h.UpdateRoadmapItem)
			rm.Delete("/{id}", h.DeleteRoadmapItem)
			rm.Post("/{id}/subtask", h.CreateSubtask)
			rm.Put("/subtask/{id}", h.ToggleSubtask)
			rm.Delete("/subtask/{id}", h.DeleteSubtask)
		})
	})
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RegisterHealthRoutes registers health check routes
func (r *Router) RegisterHealthRoutes(checks ...HealthCheck) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				log.Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
				results[c.Name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[c.Name] = "ok"
		}

		body := map[string]interface{}{
			"status":    "ready",
			"checks":    results,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if status != http.StatusOK {
			body["status"] = "not ready"
		}
		writeJSON(w, status, body)
	})
}
