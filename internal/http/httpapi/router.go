// Package httpapi wires the HTTP routes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"easyads/internal/http/handlers"
	appmw "easyads/internal/middleware"
)

// Options tunes router-level middleware.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	OutputsDir      string
}

// NewRouter assembles the API router and the static /outputs file server.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		appmw.RequestID,
		appmw.Logger(app.Logger),
		appmw.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Easy Ads API","version":"1.0.0"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(appmw.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/generate", app.CampaignsGenerate)
		r.Get("/status/{job_id}", app.CampaignStatus)
		r.Get("/images/{job_id}", app.CampaignImages)
		r.Get("/images/{job_id}/zip", app.CampaignImagesZip)
		r.Post("/check-compliance", app.CheckCompliance)
	})

	if opts.OutputsDir != "" {
		fs := http.StripPrefix("/outputs/", http.FileServer(http.Dir(opts.OutputsDir)))
		r.Get("/outputs/*", fs.ServeHTTP)
	}

	return r
}
