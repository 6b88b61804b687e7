package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates run metrics for the node-exporter textfile collector.
// Everything here is best-effort; a metrics problem never fails a bootstrap.
type Metrics struct {
	registry *prometheus.Registry

	phaseDuration *prometheus.GaugeVec
	phaseSuccess  *prometheus.GaugeVec
	runDuration   prometheus.Gauge
	runSuccess    prometheus.Gauge
}

// NewMetrics creates an empty metrics registry for one bootstrap run.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stackboot_phase_duration_seconds",
			Help: "Wall-clock duration of each bootstrap phase.",
		}, []string{"phase"}),
		phaseSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stackboot_phase_success",
			Help: "Whether the bootstrap phase completed (1) or failed (0).",
		}, []string{"phase"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stackboot_duration_seconds",
			Help: "Wall-clock duration of the whole bootstrap run.",
		}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stackboot_success",
			Help: "Whether the bootstrap run completed (1) or failed (0).",
		}),
	}
	m.registry.MustRegister(m.phaseDuration, m.phaseSuccess, m.runDuration, m.runSuccess)
	return m
}

// ObservePhase records one phase outcome. Safe on a nil receiver so contexts
// built without metrics need no guard.
func (m *Metrics) ObservePhase(phase string, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
	m.phaseSuccess.WithLabelValues(phase).Set(boolValue(ok))
}

// ObserveRun records the overall run outcome.
func (m *Metrics) ObserveRun(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.runDuration.Set(d.Seconds())
	m.runSuccess.Set(boolValue(ok))
}

// Flush writes the textfile for the node-exporter collector. The write goes
// through the real filesystem; the collector reads the same host paths the
// agent exports.
func (m *Metrics) Flush(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func boolValue(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
