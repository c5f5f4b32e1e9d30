package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/api/handler"
	apimw "github.com/forumkit/forumkit/internal/api/middleware"
	"github.com/forumkit/forumkit/internal/queue"
	"github.com/forumkit/forumkit/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	notifications *service.NotificationService,
	threads *service.ThreadService,
	broker *queue.Broker,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	nh := handler.NewNotificationHandler(notifications, logger)
	th := handler.NewThreadHandler(threads, logger)
	qh := handler.NewQueueHandler(broker)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Notifications — /preferences must be registered before /{id}
		// so chi does not treat the literal string "preferences" as an ID.
		r.Get("/notifications/preferences", nh.GetPreferences)
		r.Patch("/notifications/preferences", nh.UpdatePreferences)
		r.Get("/notifications", nh.List)
		r.Patch("/notifications/{id}/read", nh.MarkRead)

		// Threads (comment creation is the notification fan-out producer)
		r.Post("/threads", th.CreateThread)
		r.Post("/threads/{id}/comments", th.CreateComment)
		r.Post("/threads/{id}/subscription", th.Subscribe)
		r.Delete("/threads/{id}/subscription", th.Unsubscribe)

		// JSON queue snapshot
		r.Get("/queues", qh.GetQueues)
	})

	return r
}
