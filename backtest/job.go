package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/market"
	"github.com/rustyeddy/rangetrader/pkg/id"
	"go.uber.org/zap"
)

// Job is one complete run: read the trade log, evaluate the sessions it
// doesn't settle, merge the new trades back and summarize.
type Job struct {
	// RunID is generated from the run time when empty.
	RunID      string
	Instrument string

	Runner *Runner
	Ledger *journal.Ledger

	Logger *zap.Logger
	Now    func() time.Time
}

// Summary is the per-run report.
type Summary struct {
	RunID      string
	RunTime    time.Time
	Strategy   string
	Instrument string
	Policy     journal.Policy

	Result  Result
	Metrics Metrics

	// Log is the trade log the metrics were computed from.
	Log journal.Log

	// Saved is the store location, empty when nothing was written.
	Saved     string
	Unchanged bool
	Warnings  []string
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Run executes the job over bars.
func (j *Job) Run(bars market.Series) (Summary, error) {
	if j.Runner == nil || j.Runner.Strategy == nil {
		return Summary{}, fmt.Errorf("backtest: Runner with a Strategy is required")
	}
	if j.Ledger == nil {
		return Summary{}, fmt.Errorf("backtest: Ledger is required")
	}
	log := j.Logger
	if log == nil {
		log = zap.NewNop()
	}

	snap := j.Ledger.Read()

	runner := *j.Runner
	runner.Skip = nil
	if j.Ledger.Policy.SkipsKnownDates() {
		runner.Skip = snap.Log.Dates()
	}

	res, err := runner.Run(bars)
	if err != nil {
		return Summary{}, err
	}

	batch := res.Trades
	if len(batch) > 0 {
		batch = batch.WithWinRate(journal.FormatWinRate(ComputeMetrics(batch).WinRate))
	}

	out, err := j.Ledger.Write(snap, batch)
	if err != nil {
		return Summary{}, err
	}

	runTime := j.now()
	runID := j.RunID
	if runID == "" {
		runID = id.NewAt(runTime)
	}

	sum := Summary{
		RunID:      runID,
		RunTime:    runTime,
		Strategy:   j.Runner.Strategy.Name(),
		Instrument: j.Instrument,
		Policy:     j.Ledger.Policy,
		Result:     res,
		Unchanged:  out.Unchanged(),
		Warnings:   out.Warnings,
	}

	switch {
	case out.Written:
		sum.Log = out.Merged
		sum.Saved = out.Location
	case j.Ledger.Policy == journal.PolicyAppend:
		// Nothing new: report the store as it stands.
		sum.Log = snap.Log
	}
	sum.Metrics = ComputeMetrics(sum.Log)

	log.Info("run complete",
		zap.String("run_id", sum.RunID),
		zap.Int("trades", sum.Metrics.Trades),
		zap.Float64("win_rate", sum.Metrics.WinRate),
		zap.Float64("total_pnl", sum.Metrics.TotalPnL),
		zap.Float64("max_drawdown", sum.Metrics.MaxDrawdown),
		zap.Bool("written", out.Written),
	)
	return sum, nil
}

// Record converts the summary into a run history row.
func (s Summary) Record() journal.RunRecord {
	return journal.RunRecord{
		RunID:       s.RunID,
		Created:     s.RunTime,
		Instrument:  s.Instrument,
		Strategy:    s.Strategy,
		Policy:      s.Policy.String(),
		Start:       s.Result.Start,
		End:         s.Result.End,
		Sessions:    s.Result.Sessions,
		Evaluated:   s.Result.Evaluated,
		NewTrades:   len(s.Result.Trades),
		Trades:      s.Metrics.Trades,
		Wins:        s.Metrics.Wins,
		Losses:      s.Metrics.Losses,
		WinRate:     s.Metrics.WinRate,
		TotalPnL:    s.Metrics.TotalPnL,
		MaxDrawdown: s.Metrics.MaxDrawdown,
		Store:       s.Saved,
		Notes:       s.Warnings,
	}
}
