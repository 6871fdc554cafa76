package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LookupsTotal    *prometheus.CounterVec
	StudentsCreated prometheus.Counter
	StudentsUpdated prometheus.Counter
	StudentsDeleted prometheus.Counter
	PhotoUploads    prometheus.Counter
	CodeRetries     prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carteirinha_lookups_total",
			Help: "Total number of student lookups by outcome (hit, miss, error)",
		}, []string{"outcome"}),
		StudentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carteirinha_students_created_total",
			Help: "Total number of student records created",
		}),
		StudentsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carteirinha_students_updated_total",
			Help: "Total number of student profile updates",
		}),
		StudentsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carteirinha_students_deleted_total",
			Help: "Total number of student records deleted",
		}),
		PhotoUploads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carteirinha_photo_uploads_total",
			Help: "Total number of photo uploads stored",
		}),
		CodeRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carteirinha_code_retries_total",
			Help: "Total number of enrollment/usage code collision retries",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carteirinha_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncStudentsCreated increments the created counter by 1.
func (m *Metrics) IncStudentsCreated() {
	if m == nil {
		return
	}
	m.StudentsCreated.Inc()
}

// IncStudentsUpdated increments the updated counter by 1.
func (m *Metrics) IncStudentsUpdated() {
	if m == nil {
		return
	}
	m.StudentsUpdated.Inc()
}

// IncStudentsDeleted increments the deleted counter by 1.
func (m *Metrics) IncStudentsDeleted() {
	if m == nil {
		return
	}
	m.StudentsDeleted.Inc()
}

// IncPhotoUploads increments the photo upload counter by 1.
func (m *Metrics) IncPhotoUploads() {
	if m == nil {
		return
	}
	m.PhotoUploads.Inc()
}

// ObserveRequest records one HTTP request latency sample.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}

// IncLookup records one lookup with the given outcome.
func (m *Metrics) IncLookup(outcome string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(outcome).Inc()
}

// IncCodeRetry records one collision retry in the code generator.
func (m *Metrics) IncCodeRetry() {
	if m == nil {
		return
	}
	m.CodeRetries.Inc()
}
