package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a router with the operational routes configured.
func NewRouter(h *Handler, logger logrus.FieldLogger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sync", func(r chi.Router) {
			r.Post("/run", h.RunSync)
			r.Post("/cleanup-entries", h.CleanupEntries)
			r.Post("/merge-timesheets", h.MergeTimesheets)
			r.Get("/logs", h.ListSyncLogs)
		})

		r.Route("/timesheets", func(r chi.Router) {
			r.Post("/", h.CreateTimesheet)
			r.Post("/repair-status", h.RepairStatuses)
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/status", h.OverrideStatus)
				r.Post("/submit", h.SubmitTimesheet)
				r.Post("/approve", h.ApproveTimesheet)
				r.Post("/lock", h.LockTimesheet)
				r.Post("/unlock", h.UnlockTimesheet)
				r.Post("/process", h.ProcessTimesheet)
				r.Post("/entries", h.CreateEntry)
			})
		})

		r.Route("/entries/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateEntry)
			r.Delete("/", h.DeleteEntry)
		})
	})

	return r
}

// requestLogger logs one line per request through logrus.
func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			if logger == nil {
				return
			}
			logger.WithFields(logrus.Fields{
				"module":    "api",
				"requestId": middleware.GetReqID(r.Context()),
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    ww.Status(),
				"bytes":     ww.BytesWritten(),
				"duration":  time.Since(start).String(),
			}).Info("request")
		})
	}
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
