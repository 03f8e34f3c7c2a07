// Package api serves the ingest service over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mwantia/agrilink/internal/ingest"
	"github.com/mwantia/agrilink/pkg/log"
	"github.com/mwantia/agrilink/pkg/tabular"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultOwnerHeader   = "X-User-ID"
	DefaultMaxUploadSize = 50 << 20

	multipartMemory = 32 << 20
)

type Options struct {
	OwnerHeader   string
	MaxUploadSize int64
	Read          tabular.ReadOptions
	Version       string
}

type Handler struct {
	svc  *ingest.Service
	log  log.LoggerService
	opts Options
}

// NewRouter builds the HTTP surface. Every /api/v1 route requires the owner
// header.
func NewRouter(svc *ingest.Service, logger log.LoggerService, opts Options) http.Handler {
	if opts.OwnerHeader == "" {
		opts.OwnerHeader = DefaultOwnerHeader
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = DefaultMaxUploadSize
	}
	h := &Handler{svc: svc, log: logger, opts: opts}

	r := chi.NewRouter()
	r.Use(MetricsMiddleware())
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(OwnerMiddleware(opts.OwnerHeader))

		r.Get("/dashboard", h.Dashboard)

		r.Route("/tabular-files", func(r chi.Router) {
			r.Post("/", h.UploadTabular)
			r.Get("/", h.ListTabular)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTabular)
				r.Delete("/", h.DeleteTabular)
				r.Put("/content", h.ReplaceTabularContent)
				r.Post("/process", h.ProcessTabular)
				r.Get("/preview", h.PreviewTabular)
			})
		})

		r.Route("/images", func(r chi.Router) {
			r.Post("/", h.UploadImage)
			r.Get("/", h.ListImages)
			r.Post("/bulk", h.UploadImages)
			r.Get("/metadata/labels", h.MetadataLabels)
			r.Get("/metadata/values", h.MetadataValues)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetImage)
				r.Delete("/", h.DeleteImage)
				r.Get("/content", h.ImageContent)
				r.Post("/metadata", h.AddImageMetadata)
			})
		})

		r.Route("/genetic-datasets", func(r chi.Router) {
			r.Post("/", h.UploadGenetic)
			r.Get("/", h.ListGenetic)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetGenetic)
				r.Delete("/", h.DeleteGenetic)
				r.Get("/download", h.DownloadGenetic)
			})
		})
	})

	return r
}
