package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kiranshivaraju/contentgen/internal/api/handler"
	mw "github.com/kiranshivaraju/contentgen/internal/api/middleware"
	"github.com/kiranshivaraju/contentgen/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth        *mw.Auth
	RateLimit   *mw.RateLimit
	CORSOrigins []string

	HealthHandler        http.HandlerFunc
	TextHandler          http.HandlerFunc
	ImageHandler         http.HandlerFunc
	VideoHandler         http.HandlerFunc
	JobStatusHandler     http.HandlerFunc
	ImprovePromptHandler http.HandlerFunc
}

// serviceNames labels the per-area liveness probes.
var serviceNames = map[string]string{
	"text":   "text-generation",
	"images": "image-generation",
	"videos": "video-generation",
	"jobs":   "job-management",
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.CORS(deps.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// Public health checks
	r.Get("/health", orNotImplemented(deps.HealthHandler))
	r.Get("/v1/health", orNotImplemented(deps.HealthHandler))
	for area, service := range serviceNames {
		r.Get("/v1/"+area+"/health", handler.NewServiceHealthHandler(service))
	}

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("generate"))

			r.Post("/v1/generate/text", orNotImplemented(deps.TextHandler))
			r.Post("/v1/generate/image", orNotImplemented(deps.ImageHandler))
			r.Post("/v1/generate/video", orNotImplemented(deps.VideoHandler))
			r.Post("/v1/improve-prompt", orNotImplemented(deps.ImprovePromptHandler))
		})

		r.Get("/v1/jobs/{job_id}", orNotImplemented(deps.JobStatusHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
