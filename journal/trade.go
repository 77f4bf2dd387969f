// Package journal holds the per-session trade record and the durable,
// date-keyed trade log it is persisted into.
package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, nil
	case "SHORT", "SELL":
		return Short, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

type Result string

const (
	Profit Result = "Profit"
	Loss   Result = "Loss"
	Flat   Result = "Flat"
)

// ResultOf classifies a PnL by its sign.
func ResultOf(pnl float64) Result {
	switch {
	case pnl > 0:
		return Profit
	case pnl < 0:
		return Loss
	}
	return Flat
}

type ExitReason string

const (
	ResistanceConfirmed ExitReason = "Resistance Confirmed"
	SupportConfirmed    ExitReason = "Support Confirmed"
	ClosingPrice        ExitReason = "Closing Price"
	EndOfDay            ExitReason = "End of Day"
)

// Trade is the single terminal record of a session that opened a position.
type Trade struct {
	Date       time.Time
	Type       Direction
	Entry      float64
	Exit       float64
	Close      float64
	PnL        float64
	Result     Result
	ExitReason ExitReason

	// WinRate is the win rate of the run that produced the trade, already
	// formatted ("57.14%"). Rows written by older runs keep their own value.
	WinRate string
}

// NewTrade builds a trade and derives PnL and Result.
func NewTrade(date time.Time, dir Direction, entry, exit, closePrice float64, reason ExitReason) Trade {
	pnl := PnL(dir, entry, exit)
	return Trade{
		Date:       DateOf(date),
		Type:       dir,
		Entry:      entry,
		Exit:       exit,
		Close:      closePrice,
		PnL:        pnl,
		Result:     ResultOf(pnl),
		ExitReason: reason,
	}
}

// PnL is exit-entry for longs and entry-exit for shorts, computed in decimal
// so that persisted values don't carry binary float noise.
func PnL(dir Direction, entry, exit float64) float64 {
	e, x := decimal.NewFromFloat(entry), decimal.NewFromFloat(exit)
	d := x.Sub(e)
	if dir == Short {
		d = e.Sub(x)
	}
	return d.InexactFloat64()
}

// DateOf drops the clock from t, keeping t's calendar day, as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key is the trade date as YYYY-MM-DD, the log's primary key.
func (t Trade) Key() string {
	return t.Date.Format(DateLayout)
}

const DateLayout = "2006-01-02"

// FormatWinRate renders a 0..1 rate the way the log stores it.
func FormatWinRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
