// Package router wires the HTTP surface: middleware, the /students
// resource, health and metrics.
//
// Route table:
//
//	GET    /students        → list all students
//	POST   /students        → create a student
//	POST   /students/find   → find students by name and/or phone
//	GET    /students/{id}   → get one student
//	PUT    /students/{id}   → partially update a student
//	DELETE /students/{id}   → delete a student
//	GET    /health          → liveness
//	GET    /metrics         → Prometheus exposition
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// Options tune the router. The zero value is usable.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

// New returns the application's root handler. Each call gets its own
// Prometheus registry, so tests can build routers freely.
func New(store storage.Storage, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/students", func(r chi.Router) {
		r.Get("/", student.GetList(store))
		r.Post("/", student.New(store))
		r.Post("/find", student.Find(store))
		r.Get("/{id}", student.GetByID(store))
		r.Put("/{id}", student.Update(store))
		r.Delete("/{id}", student.Delete(store))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusNotFound, response.Message("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusMethodNotAllowed, response.Message("method not allowed"))
	})

	return r
}
