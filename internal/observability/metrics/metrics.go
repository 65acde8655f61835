package metrics

import "github.com/prometheus/client_golang/prometheus"

// ScheduleMetrics exposes counters/histograms for snapshot fetches and
// availability queries.
type ScheduleMetrics struct {
	fetchTotal   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	cacheTotal   *prometheus.CounterVec
	queryTotal   *prometheus.CounterVec
}

func NewScheduleMetrics(reg prometheus.Registerer) *ScheduleMetrics {
	m := &ScheduleMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedule",
			Subsystem: "source",
			Name:      "fetch_total",
			Help:      "Total schedule snapshot fetches",
		}, []string{"status"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "schedule",
			Subsystem: "source",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of schedule snapshot fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedule",
			Subsystem: "source",
			Name:      "cache_total",
			Help:      "Snapshot cache lookups by result",
		}, []string{"result"}),
		queryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedule",
			Subsystem: "api",
			Name:      "query_total",
			Help:      "Availability queries by kind and outcome",
		}, []string{"query", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency, m.cacheTotal, m.queryTotal)
	return m
}

func (m *ScheduleMetrics) ObserveFetch(status string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(status).Inc()
	m.fetchLatency.WithLabelValues(status).Observe(seconds)
}

func (m *ScheduleMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

func (m *ScheduleMetrics) ObserveQuery(query, outcome string) {
	if m == nil {
		return
	}
	m.queryTotal.WithLabelValues(query, outcome).Inc()
}
