// Package metrics содержит счётчики Prometheus, общие для сервисов приложения.
// Метрики регистрируются в глобальном реестре и отдаются через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RateLimitRejections — количество отклонённых лимитером запросов по группам маршрутов.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindwell_rate_limit_rejections_total",
		Help: "Number of requests rejected by the rate limiter.",
	}, []string{"scope"})

	// SubscriptionTransitions — количество переходов подписок по видам.
	SubscriptionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindwell_subscription_transitions_total",
		Help: "Number of subscription state transitions applied by the maintenance job.",
	}, []string{"transition"})

	// QueueJobFailures — количество упавших фоновых задач.
	QueueJobFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindwell_queue_job_failures_total",
		Help: "Number of background jobs that finished with an error.",
	})
)

// Виды переходов для SubscriptionTransitions.
const (
	TransitionTrialActivated = "trial_activated"
	TransitionTrialExpired   = "trial_expired"
	TransitionLapsed         = "lapsed"
)
