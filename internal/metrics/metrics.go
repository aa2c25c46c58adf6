package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsdesk_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Realtime metrics
	SocketsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsdesk_sockets_open",
			Help: "Currently open realtime connections",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_messages_sent_total",
			Help: "Direct messages persisted",
		},
	)

	MessagesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_messages_delivered_total",
			Help: "Per-connection deliveries during fan-out",
		},
	)

	MessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_messages_dropped_total",
			Help: "Fan-out deliveries skipped (closed or saturated connection)",
		},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_messages_rejected_total",
			Help: "Direct messages rejected before persistence",
		},
		[]string{"reason"}, // "validation" or "persistence"
	)

	// Presence metrics
	UsersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsdesk_users_online",
			Help: "Presence entries considered online at last read",
		},
	)

	Heartbeats = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_heartbeats_total",
			Help: "Heartbeat calls",
		},
		[]string{"result"}, // "registered" or "refreshed"
	)

	PresenceEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_presence_evictions_total",
			Help: "Presence entries evicted after timeout",
		},
	)

	Logins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_logins_total",
			Help: "Successful logins",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
