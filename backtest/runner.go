package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/market"
	"github.com/rustyeddy/rangetrader/session"
	"github.com/rustyeddy/rangetrader/strategies"
	"go.uber.org/zap"
)

// Skipped counts sessions that produced no trade, by cause.
type Skipped struct {
	// Ineligible sessions had too few reference bars.
	Ineligible int
	// Known sessions were already in the trade log.
	Known int
	// NoTrigger sessions were evaluated without a position being opened.
	NoTrigger int
}

func (s Skipped) Total() int {
	return s.Ineligible + s.Known + s.NoTrigger
}

// Result is what a run over a bar series produced.
type Result struct {
	Trades journal.Log

	Sessions  int
	Evaluated int
	Skipped   Skipped

	Start time.Time
	End   time.Time
}

// Runner drives a strategy over every session of a bar series.
type Runner struct {
	Strategy strategies.Strategy

	// Window overrides the strategy's own window when set.
	Window *session.Window

	// Skip holds dates that must not be evaluated again.
	Skip journal.DateSet

	Logger *zap.Logger
}

func (r *Runner) window() session.Window {
	if r.Window != nil {
		return *r.Window
	}
	return r.Strategy.Window()
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Run segments bars into sessions and evaluates each eligible one. An empty
// or unordered series fails the run; problems with a single session only
// skip that session.
func (r *Runner) Run(bars market.Series) (Result, error) {
	if r.Strategy == nil {
		return Result{}, fmt.Errorf("backtest: Strategy is required")
	}
	w := r.window()
	if err := w.Validate(); err != nil {
		return Result{}, err
	}
	if err := bars.Validate(); err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}

	log := r.logger().With(zap.String("strategy", r.Strategy.Name()))
	res := Result{Start: bars.Start(), End: bars.End()}

	for _, s := range session.Segment(bars, w) {
		res.Sessions++

		// An eligible session always has reference bars to take levels from.
		lv, err := session.CalcLevels(s.Reference)
		if err != nil || !s.Eligible() {
			res.Skipped.Ineligible++
			log.Debug("session skipped, short reference window",
				zap.String("date", s.Key()),
				zap.Int("reference_bars", len(s.Reference)),
				zap.Int("min", w.MinReferenceBars),
			)
			continue
		}
		if r.Skip != nil && r.Skip.Has(s.Date) {
			res.Skipped.Known++
			log.Debug("session skipped, already in trade log", zap.String("date", s.Key()))
			continue
		}

		res.Evaluated++
		out, ok := r.Strategy.Evaluate(s.Decision, lv, s.Close)
		if !ok {
			res.Skipped.NoTrigger++
			log.Debug("no trade",
				zap.String("date", s.Key()),
				zap.Stringer("levels", lv),
				zap.Float64("range", lv.Width()),
			)
			continue
		}

		t := journal.NewTrade(s.Date, out.Direction, out.Entry, out.Exit, s.Close, out.Reason)
		res.Trades = append(res.Trades, t)
		log.Debug("trade",
			zap.String("date", t.Key()),
			zap.String("type", string(t.Type)),
			zap.Float64("range", lv.Width()),
			zap.Float64("entry", t.Entry),
			zap.Float64("exit", t.Exit),
			zap.Float64("pnl", t.PnL),
			zap.String("reason", string(t.ExitReason)),
		)
	}

	log.Info("backtest finished",
		zap.Int("sessions", res.Sessions),
		zap.Int("evaluated", res.Evaluated),
		zap.Int("trades", len(res.Trades)),
		zap.Int("skipped", res.Skipped.Total()),
	)
	return res, nil
}
