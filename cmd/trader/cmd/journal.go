package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rustyeddy/rangetrader/backtest"
	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/pkg/id"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the trade log",
	Long: `Query and display the trade log written by backtest.

Subcommands:
  show     - List every trade in the log
  summary  - Win rate, PnL and drawdown over the whole log
  runs     - Run history (sqlite logs only)
  run      - One recorded run as an org-mode report (sqlite logs only)

Examples:
  trader journal show
  trader journal summary --store trades.csv
  trader journal runs --store runs.sqlite --limit 5
  trader journal run 01HS2J8Q6K3W5V0X9Y7ZAB1CDE --store runs.sqlite`,
}

var journalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List every trade in the log",
	Args:  cobra.NoArgs,
	RunE:  runJournalShow,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the trade log",
	Args:  cobra.NoArgs,
	RunE:  runJournalSummary,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show one recorded run as an org-mode report",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var (
	journalStore     string
	journalStoreType string
	journalLimit     int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalSummaryCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalRunCmd)

	journalCmd.PersistentFlags().StringVarP(&journalStore, "store", "o", "", "trade log path (default from config)")
	journalCmd.PersistentFlags().StringVar(&journalStoreType, "store-type", "", "trade log type (xlsx, csv, sqlite)")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs to list (0 for all)")
}

func openJournal() (journal.Store, error) {
	path, kind := cfg.Store.Path, cfg.StoreKind()
	if journalStore != "" {
		path, kind = journalStore, ""
	}
	if journalStoreType != "" {
		kind = journalStoreType
	}
	schema, err := journal.ParseSchema(cfg.Store.Schema)
	if err != nil {
		return nil, err
	}
	return journal.Open(kind, path, cfg.Instrument, schema)
}

// loadJournal reads the trade log the way a run does: a missing store is an
// empty log and an unreadable one is an empty log with a warning.
func loadJournal(cmd *cobra.Command) (journal.Log, error) {
	store, err := openJournal()
	if err != nil {
		return nil, err
	}
	policy, err := journal.ParsePolicy(cfg.Store.Policy)
	if err != nil {
		return nil, err
	}

	snap := journal.NewLedger(store, policy, logger).Read()
	for _, warn := range snap.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: %s\n", warn)
	}
	return snap.Log, nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	l, err := loadJournal(cmd)
	if err != nil {
		return err
	}
	backtest.PrintTrades(cmd.OutOrStdout(), l)
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	l, err := loadJournal(cmd)
	if err != nil {
		return err
	}
	backtest.PrintMetrics(cmd.OutOrStdout(), l)
	return nil
}

func openRunHistory() (*journal.SQLiteStore, error) {
	store, err := openJournal()
	if err != nil {
		return nil, err
	}
	sq, ok := store.(*journal.SQLiteStore)
	if !ok {
		return nil, fmt.Errorf("run history needs a sqlite trade log, got %s", store.Location())
	}
	return sq, nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	stamp, err := id.Time(runID)
	if err != nil {
		return err
	}

	sq, err := openRunHistory()
	if err != nil {
		return err
	}
	rec, err := sq.GetRun(runID)
	if err != nil {
		return err
	}
	l, err := sq.Load()
	if err != nil {
		return fmt.Errorf("load trade log: %w", err)
	}

	rep := journal.RunReport{Run: rec, Trades: l.Between(rec.Start, rec.End)}
	s, err := rep.Render()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# run id stamped %s\n", stamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprint(cmd.OutOrStdout(), s)
	return nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	sq, err := openRunHistory()
	if err != nil {
		return err
	}

	runs, err := sq.ListRuns(journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Created", "Strategy", "Policy", "New", "Trades", "Win Rate", "Total PnL", "Max DD"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			r.Created.Format("2006-01-02 15:04"),
			r.Strategy,
			r.Policy,
			r.NewTrades,
			r.Trades,
			fmt.Sprintf("%.2f%%", r.WinRate*100),
			fmt.Sprintf("%.2f", r.TotalPnL),
			fmt.Sprintf("%.2f", r.MaxDrawdown),
		})
	}
	t.Render()
	return nil
}
