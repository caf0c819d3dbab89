// Package metrics defines the Prometheus metrics of the tagging service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "video_tagging"

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Timeline mutations
	TagsAddedTotal   prometheus.Counter
	TagsRemovedTotal prometheus.Counter

	// Exports
	ExportsTotal   *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec
	PublishTotal   *prometheus.CounterVec

	// Storage
	StoreOperationDuration *prometheus.HistogramVec
	CorruptRecordsTotal    prometheus.Counter
	SweepRemovedTotal      prometheus.Counter
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TagsAddedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timeline",
			Name:      "tags_added_total",
			Help:      "Total number of tags added",
		}),
		TagsRemovedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timeline",
			Name:      "tags_removed_total",
			Help:      "Total number of tags removed",
		}),
		ExportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "requests_total",
			Help:      "Total number of export requests by format and result",
		}, []string{"format", "result"}),
		ExportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "Time spent building an export",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		PublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "published_total",
			Help:      "ML documents published to the broker by result",
		}, []string{"result"}),
		StoreOperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Record store operation latency",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation"}),
		CorruptRecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "corrupt_records_total",
			Help:      "Stored values that failed to parse",
		}),
		SweepRemovedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "sweep_removed_total",
			Help:      "Records removed by the retention sweep",
		}),
	}
}

func (m *Metrics) TagAdded() {
	if m != nil {
		m.TagsAddedTotal.Inc()
	}
}

func (m *Metrics) TagRemoved() {
	if m != nil {
		m.TagsRemovedTotal.Inc()
	}
}

// ObserveExport records one export attempt.
func (m *Metrics) ObserveExport(format string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.ExportsTotal.WithLabelValues(format, result).Inc()
	m.ExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Published(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.PublishTotal.WithLabelValues(result).Inc()
}

// ObserveStore records the latency of one store operation.
func (m *Metrics) ObserveStore(operation string, start time.Time) {
	if m != nil {
		m.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) CorruptRecord() {
	if m != nil {
		m.CorruptRecordsTotal.Inc()
	}
}

func (m *Metrics) SweepRemoved(n int) {
	if m != nil {
		m.SweepRemovedTotal.Add(float64(n))
	}
}
