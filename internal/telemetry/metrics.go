package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests — количество обработанных HTTP запросов.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infra_api_http_requests_total",
		Help: "Total HTTP requests handled by infra-api",
	}, []string{"method", "status"})

	// HTTPDuration — длительность обработки HTTP запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "infra_api_http_request_duration_seconds",
		Help:    "HTTP request latency of infra-api",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// AdminLogins — попытки входа в админку по результату.
	AdminLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infra_admin_logins_total",
		Help: "Admin login attempts by result",
	}, []string{"result"})

	// CSRFRejected — запросы, отклонённые проверкой CSRF.
	CSRFRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infra_admin_csrf_rejected_total",
		Help: "Mutating admin requests rejected by the CSRF check",
	})

	// SubscriptionsExpired — подписки, переведённые scheduler'ом в expired.
	SubscriptionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infra_scheduler_subscriptions_expired_total",
		Help: "Subscriptions marked expired by the expiry sweep",
	})

	// SweepErrors — неудачные прогоны sweep.
	SweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infra_scheduler_sweep_errors_total",
		Help: "Failed expiry sweeps",
	})

	// EventsRelayed — события, обработанные notifier'ом.
	EventsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infra_notifier_events_total",
		Help: "Admin events handled by infra-notifier by type and result",
	}, []string{"type", "result"})
)
