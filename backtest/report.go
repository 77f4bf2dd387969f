package backtest

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rustyeddy/rangetrader/journal"
)

// PrintSummary writes the per-run console report.
func PrintSummary(w io.Writer, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("BACKTEST RESULT")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Run time", s.RunTime.Format("2006-01-02 15:04:05")},
		{"Run ID", s.RunID},
		{"Strategy", s.Strategy},
		{"Instrument", s.Instrument},
		{"Policy", s.Policy.String()},
	})
	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"Sessions", s.Result.Sessions},
		{"Evaluated", s.Result.Evaluated},
		{"Skipped", fmt.Sprintf("%d (short %d, known %d, no signal %d)",
			s.Result.Skipped.Total(), s.Result.Skipped.Ineligible, s.Result.Skipped.Known, s.Result.Skipped.NoTrigger)},
		{"New trades", len(s.Result.Trades)},
	})
	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"Trades", s.Metrics.Trades},
		{"Win Rate", journal.FormatWinRate(s.Metrics.WinRate)},
		{"Max Drawdown", fmt.Sprintf("%.2f", s.Metrics.MaxDrawdown)},
		{"Total PnL", fmt.Sprintf("%.2f", s.Metrics.TotalPnL)},
	})

	switch {
	case s.Saved != "":
		t.AppendSeparator()
		t.AppendRow(table.Row{"Saved", s.Saved})
	case s.Unchanged && s.Policy == journal.PolicyAppend:
		t.AppendSeparator()
		t.AppendRow(table.Row{"Saved", "trade log unchanged"})
	}

	for _, warn := range s.Warnings {
		t.AppendRow(table.Row{"Warning", warn})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 14, WidthMax: 14, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 80, Align: text.AlignLeft},
	})
	t.Render()

	if s.Saved != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To view the trade log, run: trader journal show")
	}
}

// PrintTrades writes the log as a table with a totals footer.
func PrintTrades(w io.Writer, l journal.Log) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Date", "Type", "Entry", "Exit", "Close", "PnL", "Result", "Exit Reason", "Win Rate"})

	for _, tr := range l {
		t.AppendRow(table.Row{
			tr.Key(), tr.Type, tr.Entry, tr.Exit, tr.Close,
			fmt.Sprintf("%.2f", tr.PnL), tr.Result, tr.ExitReason, tr.WinRate,
		})
	}

	m := ComputeMetrics(l)
	t.AppendFooter(table.Row{"", "", "", "", "Total", fmt.Sprintf("%.2f", m.TotalPnL), fmt.Sprintf("%d trades", m.Trades)})
	t.Render()
}

// PrintMetrics writes the dashboard style metrics of a log.
func PrintMetrics(w io.Writer, l journal.Log) {
	m := ComputeMetrics(l)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("TRADE LOG")
	t.SetStyle(table.StyleRounded)

	first, last := l.Sorted().Span()
	period := "(empty)"
	if m.Trades > 0 {
		period = fmt.Sprintf("%s .. %s", first.Format(journal.DateLayout), last.Format(journal.DateLayout))
	}

	t.AppendRows([]table.Row{
		{"Period", period},
		{"Trades", m.Trades},
		{"Wins", m.Wins},
		{"Losses", m.Losses},
		{"Win Rate", journal.FormatWinRate(m.WinRate)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Total PnL", fmt.Sprintf("%.2f", m.TotalPnL)},
		{"Gross Profit", fmt.Sprintf("%.2f", m.GrossProfit)},
		{"Gross Loss", fmt.Sprintf("%.2f", m.GrossLoss)},
		{"Profit Factor", fmt.Sprintf("%.2f", m.ProfitFactor())},
		{"Max Drawdown", fmt.Sprintf("%.2f", m.MaxDrawdown)},
	})
	t.Render()
}

