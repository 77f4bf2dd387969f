// Package telemetry exports run results as a Prometheus textfile, for the
// node exporter's textfile collector.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rustyeddy/rangetrader/backtest"
)

var labels = []string{"instrument", "strategy"}

// RunMetrics holds the gauges of one run on a private registry.
type RunMetrics struct {
	reg *prometheus.Registry

	sessions    *prometheus.GaugeVec
	newTrades   *prometheus.GaugeVec
	logTrades   *prometheus.GaugeVec
	winRatio    *prometheus.GaugeVec
	totalPnL    *prometheus.GaugeVec
	maxDrawdown *prometheus.GaugeVec
	written     *prometheus.GaugeVec
	lastRun     *prometheus.GaugeVec
}

func NewRunMetrics() *RunMetrics {
	gauge := func(name, help string, extra ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rangetrader",
			Name:      name,
			Help:      help,
		}, append(append([]string(nil), labels...), extra...))
	}

	m := &RunMetrics{
		reg:         prometheus.NewRegistry(),
		sessions:    gauge("sessions", "Sessions seen in the last run by outcome", "outcome"),
		newTrades:   gauge("new_trades", "Trades produced by the last run"),
		logTrades:   gauge("log_trades", "Trades in the trade log after the last run"),
		winRatio:    gauge("win_ratio", "Winning trades over all trades in the log"),
		totalPnL:    gauge("total_pnl", "Sum of trade PnL in the log"),
		maxDrawdown: gauge("max_drawdown", "Deepest fall of cumulative PnL below its peak"),
		written:     gauge("store_written", "1 when the last run wrote the trade log"),
		lastRun:     gauge("last_run_timestamp_seconds", "Unix time of the last run"),
	}
	m.reg.MustRegister(m.sessions, m.newTrades, m.logTrades, m.winRatio,
		m.totalPnL, m.maxDrawdown, m.written, m.lastRun)
	return m
}

// Observe records a run summary.
func (m *RunMetrics) Observe(s backtest.Summary) {
	l := prometheus.Labels{"instrument": s.Instrument, "strategy": s.Strategy}
	with := func(outcome string) prometheus.Labels {
		return prometheus.Labels{"instrument": s.Instrument, "strategy": s.Strategy, "outcome": outcome}
	}

	m.sessions.With(with("evaluated")).Set(float64(s.Result.Evaluated))
	m.sessions.With(with("ineligible")).Set(float64(s.Result.Skipped.Ineligible))
	m.sessions.With(with("known")).Set(float64(s.Result.Skipped.Known))
	m.sessions.With(with("no_trigger")).Set(float64(s.Result.Skipped.NoTrigger))

	m.newTrades.With(l).Set(float64(len(s.Result.Trades)))
	m.logTrades.With(l).Set(float64(s.Metrics.Trades))
	m.winRatio.With(l).Set(s.Metrics.WinRate)
	m.totalPnL.With(l).Set(s.Metrics.TotalPnL)
	m.maxDrawdown.With(l).Set(s.Metrics.MaxDrawdown)

	written := 0.0
	if s.Saved != "" {
		written = 1
	}
	m.written.With(l).Set(written)
	m.lastRun.With(l).Set(float64(s.RunTime.Unix()))
}

// Registry exposes the underlying registry, mostly for tests.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.reg
}

// WriteFile writes the gauges in the text exposition format.
func (m *RunMetrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
