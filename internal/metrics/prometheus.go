package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ConnectionsTotal prometheus.Gauge
	LockOperations   *prometheus.CounterVec
	FinishMarks      *prometheus.CounterVec
	Finalizations    *prometheus.CounterVec
	JudgeJobs        prometheus.Counter
	KafkaMessages    *prometheus.CounterVec
	MessagesSent     prometheus.Counter
	AuthFailures     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ConnectionsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections_total",
			Help: "Total number of active WebSocket connections",
		}),
		LockOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lock_operations_total",
			Help: "Total number of lock store operations",
		}, []string{"operation", "status"}),
		FinishMarks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finish_marks_total",
			Help: "Total number of finish quorum marks and cancels",
		}, []string{"operation"}),
		Finalizations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_finalizations_total",
			Help: "Total number of submission finalizations by trigger",
		}, []string{"trigger", "status"}),
		JudgeJobs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "judge_jobs_enqueued_total",
			Help: "Total number of judge jobs produced",
		}),
		KafkaMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Total number of Kafka messages processed",
		}, []string{"topic", "status"}),
		MessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ws_messages_sent_total",
			Help: "Total number of messages sent to clients",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ws_auth_failures_total",
			Help: "Total number of authentication failures",
		}),
	}
}

func (m *Metrics) IncConnections() {
	m.ConnectionsTotal.Inc()
}

func (m *Metrics) DecConnections() {
	m.ConnectionsTotal.Dec()
}

func (m *Metrics) IncLockOperation(operation, status string) {
	m.LockOperations.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) IncFinishMark(operation string) {
	m.FinishMarks.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncFinalization(trigger, status string) {
	m.Finalizations.WithLabelValues(trigger, status).Inc()
}

func (m *Metrics) IncJudgeJob() {
	m.JudgeJobs.Inc()
}

func (m *Metrics) IncKafkaMessage(topic, status string) {
	m.KafkaMessages.WithLabelValues(topic, status).Inc()
}

func (m *Metrics) IncAuthFailures() {
	m.AuthFailures.Inc()
}
