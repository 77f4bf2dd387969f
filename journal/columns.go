package journal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Column names of the flat tabular record. The dashboard reads these by name.
const (
	ColDate       = "Date"
	ColEntry      = "Entry"
	ColExit       = "Exit"
	ColClose      = "Close"
	ColExitReason = "Exit Reason"
	ColPnL        = "PnL"
	ColWinRate    = "Win Rate"
	ColType       = "Type"
	ColResult     = "Result"
)

// Schema selects the column set written to file stores.
type Schema int

const (
	SchemaFull Schema = iota
	SchemaMinimal
)

var (
	fullColumns    = []string{ColDate, ColEntry, ColExit, ColClose, ColExitReason, ColPnL, ColWinRate, ColType, ColResult}
	minimalColumns = []string{ColDate, ColType, ColEntry, ColExit, ColClose, ColPnL, ColResult}
)

func (s Schema) Columns() []string {
	if s == SchemaMinimal {
		return append([]string(nil), minimalColumns...)
	}
	return append([]string(nil), fullColumns...)
}

func (s Schema) String() string {
	if s == SchemaMinimal {
		return "minimal"
	}
	return "full"
}

func ParseSchema(s string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return SchemaFull, nil
	case "minimal", "min":
		return SchemaMinimal, nil
	}
	return 0, fmt.Errorf("unknown schema %q (supported: full, minimal)", s)
}

// values returns the typed cell values of t in column order.
func values(t Trade, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		switch c {
		case ColDate:
			out[i] = t.Key()
		case ColEntry:
			out[i] = t.Entry
		case ColExit:
			out[i] = t.Exit
		case ColClose:
			out[i] = t.Close
		case ColExitReason:
			out[i] = string(t.ExitReason)
		case ColPnL:
			out[i] = t.PnL
		case ColWinRate:
			out[i] = t.WinRate
		case ColType:
			out[i] = string(t.Type)
		case ColResult:
			out[i] = string(t.Result)
		}
	}
	return out
}

// record renders t as strings in column order.
func record(t Trade, cols []string) []string {
	vals := values(t, cols)
	out := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case float64:
			out[i] = f(x)
		case string:
			out[i] = x
		}
	}
	return out
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

type dateParser func(string) (time.Time, error)

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

// decodeRows turns a header plus data rows into a Log. Columns are matched by
// name so both schemas, and files written by other tools, can be read.
// Date, Entry, Exit and PnL are required; Result is derived from PnL when
// missing. Blank rows are skipped.
func decodeRows(header []string, rows [][]string, pd dateParser) (Log, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, req := range []string{ColDate, ColEntry, ColExit, ColPnL} {
		if _, ok := idx[req]; !ok {
			return nil, fmt.Errorf("missing column %q", req)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	num := func(row []string, col string) (float64, error) {
		s := cell(row, col)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s %q: %w", col, s, err)
		}
		return v, nil
	}

	var out Log
	for n, row := range rows {
		if blank(row) {
			continue
		}

		var (
			t   Trade
			err error
		)
		if t.Date, err = pd(cell(row, ColDate)); err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		for _, p := range []struct {
			col string
			dst *float64
		}{
			{ColEntry, &t.Entry},
			{ColExit, &t.Exit},
			{ColClose, &t.Close},
			{ColPnL, &t.PnL},
		} {
			if *p.dst, err = num(row, p.col); err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
		}
		if s := cell(row, ColType); s != "" {
			if t.Type, err = ParseDirection(s); err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
		}
		t.ExitReason = ExitReason(cell(row, ColExitReason))
		t.WinRate = cell(row, ColWinRate)
		t.Result = Result(cell(row, ColResult))
		if t.Result == "" {
			t.Result = ResultOf(t.PnL)
		}
		out = append(out, t)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
