package backtest

import (
	"github.com/rustyeddy/rangetrader/journal"
	"github.com/shopspring/decimal"
)

// Metrics summarizes a trade log.
type Metrics struct {
	Trades int
	Wins   int
	Losses int
	Flats  int

	// WinRate is Wins/Trades in 0..1.
	WinRate float64

	TotalPnL    float64
	GrossProfit float64
	GrossLoss   float64

	// MaxDrawdown is the deepest fall of cumulative PnL below its running
	// peak. Always <= 0.
	MaxDrawdown float64
}

// ProfitFactor is GrossProfit/|GrossLoss|, zero when there are no losses.
func (m Metrics) ProfitFactor() float64 {
	if m.GrossLoss == 0 {
		return 0
	}
	return m.GrossProfit / -m.GrossLoss
}

// ComputeMetrics walks the trades in date order. An empty log gives zero
// metrics.
func ComputeMetrics(l journal.Log) Metrics {
	var m Metrics
	if len(l) == 0 {
		return m
	}

	var (
		total, profit, loss decimal.Decimal
		peak, maxDD         decimal.Decimal
	)
	for i, t := range l.Sorted() {
		pnl := decimal.NewFromFloat(t.PnL)
		switch {
		case pnl.IsPositive():
			m.Wins++
			profit = profit.Add(pnl)
		case pnl.IsNegative():
			m.Losses++
			loss = loss.Add(pnl)
		default:
			m.Flats++
		}

		total = total.Add(pnl)
		// The peak starts at the first cumulative value, not at zero.
		if i == 0 || total.GreaterThan(peak) {
			peak = total
		}
		if dd := total.Sub(peak); dd.LessThan(maxDD) {
			maxDD = dd
		}
	}

	m.Trades = len(l)
	m.WinRate = float64(m.Wins) / float64(m.Trades)
	m.TotalPnL = total.InexactFloat64()
	m.GrossProfit = profit.InexactFloat64()
	m.GrossLoss = loss.InexactFloat64()
	m.MaxDrawdown = maxDD.InexactFloat64()
	return m
}
