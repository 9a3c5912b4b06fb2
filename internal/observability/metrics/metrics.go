package metrics

import "github.com/prometheus/client_golang/prometheus"

// AgendaMetrics exposes counters/histograms for the agenda config cache.
type AgendaMetrics struct {
	lookupsTotal     *prometheus.CounterVec
	fetchFallbacks   prometheus.Counter
	savesTotal       *prometheus.CounterVec
	remoteWriteTotal *prometheus.CounterVec
	remoteLatency    *prometheus.HistogramVec
}

func NewAgendaMetrics(reg prometheus.Registerer) *AgendaMetrics {
	m := &AgendaMetrics{
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "agenda",
			Name:      "config_lookups_total",
			Help:      "Agenda config lookups by cache result",
		}, []string{"result"}),
		fetchFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "agenda",
			Name:      "config_fetch_fallbacks_total",
			Help:      "Remote config fetches that failed and fell back to defaults",
		}),
		savesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "agenda",
			Name:      "config_saves_total",
			Help:      "Agenda config saves by outcome",
		}, []string{"status"}),
		remoteWriteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "agenda",
			Name:      "setting_writes_total",
			Help:      "Remote setting writes by operation and outcome",
		}, []string{"op", "status"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "agenda",
			Name:      "remote_latency_seconds",
			Help:      "Latency of clinic-settings calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.lookupsTotal, m.fetchFallbacks, m.savesTotal, m.remoteWriteTotal, m.remoteLatency)
	return m
}

// ObserveLookup records a cache "hit" or "miss".
func (m *AgendaMetrics) ObserveLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookupsTotal.WithLabelValues(result).Inc()
}

func (m *AgendaMetrics) ObserveFetchFallback() {
	if m == nil {
		return
	}
	m.fetchFallbacks.Inc()
}

// ObserveSave records a save outcome: "ok", "noop" or "failed".
func (m *AgendaMetrics) ObserveSave(status string) {
	if m == nil {
		return
	}
	m.savesTotal.WithLabelValues(status).Inc()
}

// ObserveRemoteWrite records one setting write ("create" or "update").
func (m *AgendaMetrics) ObserveRemoteWrite(op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.remoteWriteTotal.WithLabelValues(op, status).Inc()
}

func (m *AgendaMetrics) ObserveRemoteLatency(op string, seconds float64) {
	if m == nil {
		return
	}
	m.remoteLatency.WithLabelValues(op).Observe(seconds)
}
