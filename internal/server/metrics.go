package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/loadout/internal/engine"
)

// Metrics is the Prometheus metric set for one server instance. A private
// registry keeps tests independent and avoids default-registry collisions.
type Metrics struct {
	registry *prometheus.Registry

	compilations      prometheus.Counter
	sectionsTruncated prometheus.Counter
	sectionsDropped   prometheus.Counter
	restores          prometheus.Counter
	budgetUtilization prometheus.Gauge
	deviations        prometheus.Gauge
}

// NewMetrics creates and registers the metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		compilations: factory.NewCounter(prometheus.CounterOpts{
			Name: "loadout_compilations_total",
			Help: "Completed compilation cycles.",
		}),
		sectionsTruncated: factory.NewCounter(prometheus.CounterOpts{
			Name: "loadout_sections_truncated_total",
			Help: "Sections degraded to a skeleton or omission footer.",
		}),
		sectionsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "loadout_sections_dropped_total",
			Help: "Sections left out of a compilation entirely.",
		}),
		restores: factory.NewCounter(prometheus.CounterOpts{
			Name: "loadout_integrity_restores_total",
			Help: "Sections restored from an integrity backup.",
		}),
		budgetUtilization: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loadout_budget_utilization_percent",
			Help: "Budget used by the most recent compilation, in percent.",
		}),
		deviations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loadout_integrity_deviations",
			Help: "Deviations found by the most recent integrity check.",
		}),
	}
}

// RecordCycle records the outcome of one compilation cycle.
func (m *Metrics) RecordCycle(result engine.Result) {
	m.compilations.Inc()
	m.sectionsTruncated.Add(float64(len(result.Report.Truncated)))
	m.sectionsDropped.Add(float64(len(result.Report.Dropped)))
	m.budgetUtilization.Set(result.Report.Utilization)
	m.deviations.Set(float64(len(result.Deviations)))
}

// RecordDeviations records the outcome of a standalone integrity check.
func (m *Metrics) RecordDeviations(n int) {
	m.deviations.Set(float64(n))
}

// RecordRestores records sections restored from backup.
func (m *Metrics) RecordRestores(n int) {
	m.restores.Add(float64(n))
	m.deviations.Set(0)
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
