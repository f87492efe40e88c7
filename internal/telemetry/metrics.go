package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus метрики оркестратора.
//
// Создаются один раз на процесс через NewMetrics и передаются
// компонентам явно (без глобального состояния, кроме registerer).
type Metrics struct {
	// JobsSubmitted — количество принятых jobs.
	JobsSubmitted prometheus.Counter

	// JobsDuplicate — количество отклонённых дубликатов job_id.
	JobsDuplicate prometheus.Counter

	// JobsCompleted — количество успешно завершённых jobs.
	JobsCompleted prometheus.Counter

	// JobsFailed — количество jobs, завершившихся с ошибкой.
	JobsFailed prometheus.Counter

	// NodeDuration — длительность выполнения узлов по имени узла.
	NodeDuration *prometheus.HistogramVec

	// CallbackTimeouts — количество таймаутов ожидания callback по задаче.
	CallbackTimeouts *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_jobs_submitted_total",
			Help: "Number of jobs admitted by the orchestrator.",
		}),
		JobsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_jobs_duplicate_total",
			Help: "Number of submissions rejected as duplicate job_id.",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_jobs_completed_total",
			Help: "Number of jobs that reached the completed state.",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conveyor_jobs_failed_total",
			Help: "Number of jobs that reached the failed state.",
		}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "conveyor_node_duration_seconds",
			Help:    "Execution time of workflow nodes.",
			Buckets: prometheus.DefBuckets,
		}, []string{"node"}),
		CallbackTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conveyor_callback_timeouts_total",
			Help: "Number of delegated steps that timed out waiting for a callback.",
		}, []string{"task"}),
	}

	reg.MustRegister(
		m.JobsSubmitted,
		m.JobsDuplicate,
		m.JobsCompleted,
		m.JobsFailed,
		m.NodeDuration,
		m.CallbackTimeouts,
	)

	return m
}

// ObserveNode записывает длительность выполнения узла.
func (m *Metrics) ObserveNode(node string, started time.Time) {
	if m == nil {
		return
	}
	m.NodeDuration.WithLabelValues(node).Observe(time.Since(started).Seconds())
}
