package cmd

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/rangetrader/backtest"
	"github.com/rustyeddy/rangetrader/internal/telemetry"
	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/market"
	"github.com/rustyeddy/rangetrader/strategies"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy over historical bars and update the trade log",
	Long: `Run a strategy over 15 minute bars and merge the simulated trades into
the trade log.

With the upsert policy every session is evaluated and the newest result wins.
With the incremental policy dates already in the log are skipped.

Examples:
  trader backtest --bars data/spx_15m.csv
  trader backtest --strategy momentum --store trades.csv --policy incremental
  trader backtest --store runs.sqlite --org report.org --metrics run.prom`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var backtestFlags struct {
	bars       string
	strategy   string
	instrument string
	from       string
	to         string
	store      string
	storeType  string
	policy     string
	schema     string
	org        string
	metrics    string
}

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVarP(&backtestFlags.bars, "bars", "b", "", "path to the bar CSV")
	f.StringVarP(&backtestFlags.strategy, "strategy", "s", "", "strategy name (reversal, momentum)")
	f.StringVarP(&backtestFlags.instrument, "instrument", "i", "", "instrument label")
	f.StringVar(&backtestFlags.from, "from", "", "first date to evaluate (YYYY-MM-DD)")
	f.StringVar(&backtestFlags.to, "to", "", "last date to evaluate (YYYY-MM-DD)")
	f.StringVarP(&backtestFlags.store, "store", "o", "", "trade log path")
	f.StringVar(&backtestFlags.storeType, "store-type", "", "trade log type (xlsx, csv, sqlite)")
	f.StringVarP(&backtestFlags.policy, "policy", "p", "", "merge policy (upsert, incremental)")
	f.StringVar(&backtestFlags.schema, "schema", "", "trade log columns (full, minimal)")
	f.StringVar(&backtestFlags.org, "org", "", "write an org-mode run report to this path")
	f.StringVar(&backtestFlags.metrics, "metrics", "", "write prometheus run metrics to this path")
}

// applyBacktestFlags copies the flags the user set onto the loaded config.
func applyBacktestFlags(cmd *cobra.Command) error {
	for name, dst := range map[string]*string{
		"bars":       &cfg.Bars.Path,
		"strategy":   &cfg.Strategy.Name,
		"instrument": &cfg.Instrument,
		"from":       &cfg.Bars.From,
		"to":         &cfg.Bars.To,
		"store":      &cfg.Store.Path,
		"store-type": &cfg.Store.Type,
		"policy":     &cfg.Store.Policy,
		"schema":     &cfg.Store.Schema,
		"org":        &cfg.Report.OrgPath,
		"metrics":    &cfg.Report.MetricsPath,
	} {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	// A path given without a type picks the type from its extension.
	if cmd.Flags().Changed("store") && !cmd.Flags().Changed("store-type") {
		cfg.Store.Type = ""
	}
	return cfg.Validate()
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if err := applyBacktestFlags(cmd); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	strat, err := strategies.StrategyByName(cfg.Strategy.Name)
	if err != nil {
		return err
	}
	window, err := cfg.Window()
	if err != nil {
		return err
	}
	policy, err := journal.ParsePolicy(cfg.Store.Policy)
	if err != nil {
		return err
	}
	schema := strat.Schema()
	if cfg.Store.Schema != "" {
		if schema, err = journal.ParseSchema(cfg.Store.Schema); err != nil {
			return err
		}
	}

	bars, err := loadBars()
	if err != nil {
		return err
	}

	store, err := journal.Open(cfg.StoreKind(), cfg.Store.Path, cfg.Instrument, schema)
	if err != nil {
		return err
	}

	job := &backtest.Job{
		Instrument: cfg.Instrument,
		Runner: &backtest.Runner{
			Strategy: strat,
			Window:   window,
			Logger:   logger,
		},
		Ledger: journal.NewLedger(store, policy, logger),
		Logger: logger,
	}

	sum, err := job.Run(bars)
	if err != nil {
		return err
	}

	if rec, ok := store.(journal.RunRecorder); ok {
		if err := rec.RecordRun(sum.Record()); err != nil {
			logger.Warn("run history not recorded", zap.Error(err))
		}
	}

	backtest.PrintSummary(cmd.OutOrStdout(), sum)

	if err := writeReports(cmd, sum); err != nil {
		return err
	}
	return nil
}

func loadBars() (market.Series, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	from, to, err := cfg.Range()
	if err != nil {
		return nil, err
	}

	bars, err := market.LoadCSV(cfg.Bars.Path, loc, from, to)
	if errors.Is(err, market.ErrNoBars) {
		return nil, fmt.Errorf("no bars in the selected range: %w", err)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("bars loaded",
		zap.String("path", cfg.Bars.Path),
		zap.Int("bars", len(bars)),
	)
	return bars, nil
}

func writeReports(cmd *cobra.Command, sum backtest.Summary) error {
	if cfg.Report.OrgPath != "" {
		rep := journal.RunReport{Run: sum.Record(), Trades: sum.Log}
		if err := rep.WriteFile(cfg.Report.OrgPath); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Run report written to %s\n", cfg.Report.OrgPath)
	}

	if cfg.Report.MetricsPath != "" {
		m := telemetry.NewRunMetrics()
		m.Observe(sum)
		if err := m.WriteFile(cfg.Report.MetricsPath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Metrics written to %s\n", cfg.Report.MetricsPath)
	}
	return nil
}
