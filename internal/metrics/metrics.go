package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "urlguard"

// Check outcomes.
const (
	ResultBlocked     = "blocked"
	ResultClean       = "clean"
	ResultAllowlisted = "allowlisted"
)

// Metrics owns a private registry. A nil *Metrics is a no-op.
type Metrics struct {
	reg *prometheus.Registry

	checks          *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	registryEntries prometheus.Gauge
	registryUpdates *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "URL checks by result.",
		}, []string{"result"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "URLs rejected before lookup, by reason.",
		}, []string{"reason"}),
		registryEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_entries",
			Help:      "Listed expressions in the active registry.",
		}),
		registryUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_updates_total",
			Help:      "Registry refresh attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.reg.MustRegister(
		m.checks,
		m.rejected,
		m.registryEntries,
		m.registryUpdates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCheck(result string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// ObserveUpdate records a refresh attempt; entries is only applied on success.
func (m *Metrics) ObserveUpdate(err error, entries int) {
	if m == nil {
		return
	}
	if err != nil {
		m.registryUpdates.WithLabelValues("error").Inc()
		return
	}
	m.registryUpdates.WithLabelValues("ok").Inc()
	m.registryEntries.Set(float64(entries))
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
