package journal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

// RunReport is an Org-mode view of a run and the log it produced.
type RunReport struct {
	Run    RunRecord
	Trades Log
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "(none)"
		}
		return t.Format(DateLayout)
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// Render returns the report as Org text.
func (r RunReport) Render() (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTemplate.Execute(buf, r); err != nil {
		return "", err
	}
	buf.WriteString(FormatTradesOrg(r.Trades))
	return buf.String(), nil
}

// WriteFile renders the report and writes it to path.
func (r RunReport) WriteFile(path string) error {
	s, err := r.Render()
	if err != nil {
		return fmt.Errorf("render run report: %w", err)
	}
	return atomicWrite(path, func(tmp string) error {
		return os.WriteFile(tmp, []byte(s), 0644)
	})
}

// FormatTradesOrg renders trades as an Org table.
func FormatTradesOrg(l Log) string {
	var b strings.Builder
	b.WriteString("\n** Trades\n")
	if len(l) == 0 {
		b.WriteString("# no trades\n")
		return b.String()
	}
	b.WriteString("| Date | Type | Entry | Exit | Close | PnL | Result | Exit Reason |\n")
	b.WriteString("|------+------+-------+------+-------+-----+--------+-------------|\n")
	for _, t := range l {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			t.Key(), t.Type, f(t.Entry), f(t.Exit), f(t.Close), f(t.PnL), t.Result, t.ExitReason)
	}
	return b.String()
}

const RunOrgTemplate = `
* BACKTEST: {{.Run.Strategy}} {{.Run.Instrument}}
:PROPERTIES:
:RUN_ID:      {{if .Run.RunID}}{{.Run.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Run.Strategy}}
:INSTRUMENT:  {{.Run.Instrument}}
:POLICY:      {{.Run.Policy}}
:START_DATE:  {{date .Run.Start}}
:END_DATE:    {{date .Run.End}}
:SESSIONS:    {{.Run.Sessions}}
:EVALUATED:   {{.Run.Evaluated}}
:NEW_TRADES:  {{.Run.NewTrades}}
:TRADES:      {{.Run.Trades}}
:WINS:        {{.Run.Wins}}
:LOSSES:      {{.Run.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .Run.WinRate)}}
:TOTAL_PNL:   {{printf "%.2f" .Run.TotalPnL}}
:MAX_DD:      {{printf "%.2f" .Run.MaxDrawdown}}
:STORE:       {{if .Run.Store}}{{.Run.Store}}{{else}}(not written){{end}}
:CREATED:     [{{(orTime .Run.Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Total PnL:        *{{printf "%.2f" .Run.TotalPnL}}*
- Max Drawdown:     *{{printf "%.2f" .Run.MaxDrawdown}}*
- Win Rate:         *{{printf "%.2f" (mul100 .Run.WinRate)}}%*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Run.Wins}} |
| Losses  | {{.Run.Losses}} |
| Total   | {{.Run.Trades}} |

{{- if .Run.Notes }}

** Observations
{{- range .Run.Notes }}
- {{.}}
{{- end }}
{{- end }}
`
