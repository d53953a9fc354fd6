package metrics

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebSocket Metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "The current number of active WebSocket connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_connections_total",
		Help: "The total number of WebSocket connections accepted.",
	})
	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_dispatched_total",
		Help: "The total number of realtime events dispatched to connections.",
	}, []string{"event"})
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "The total number of event deliveries dropped due to broken transports.",
	})

	// HTTP Metrics
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "The total number of HTTP requests served.",
	}, []string{"method", "path", "status"})
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "http_rate_limit_rejections_total",
		Help: "The total number of requests rejected by the rate limiter.",
	})

	// Broker Metrics
	BrokerMessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broker_messages_published_total",
		Help: "The total number of events published to the message broker.",
	}, []string{"broker_type"})

	// Auth Metrics
	AuthSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_success_total",
		Help: "The total number of successful authentications.",
	})
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "The total number of failed authentications.",
	}, []string{"reason"})

	// AI Metrics
	NotesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ai_notes_generated_total",
		Help: "The total number of clinical notes generated successfully.",
	})
	NoteGenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ai_note_generation_failures_total",
		Help: "The total number of failed clinical note generations.",
	})
)

// StartServer starts the HTTP server for Prometheus metrics.
func StartServer(port int, path string) {
	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting metrics server on %s%s", addr, path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatalf("Failed to start metrics server: %v", err)
		}
	}()
}
