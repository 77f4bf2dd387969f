package strategies

import (
	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/market"
	"github.com/rustyeddy/rangetrader/session"
)

// MomentumContinuation enters at the close of a bar that reaches a level
// while the last three highs (long) or lows (short) keep extending, and holds
// to the session close.
type MomentumContinuation struct{}

func (MomentumContinuation) Name() string { return "momentum" }
func (MomentumContinuation) Window() session.Window { return session.MiddayWindow }
func (MomentumContinuation) Schema() journal.Schema { return journal.SchemaMinimal }

func (mc MomentumContinuation) Evaluate(bars []market.Bar, lv session.Levels, closePrice float64) (Outcome, bool) {
	m := newMachine(bars, lv, closePrice)

	for i := 2; i < len(bars); i++ {
		if m.state == awaiting {
			mc.enter(m, i)
		}
		m.closeAtSessionEnd(i, journal.EndOfDay)
		if m.state == closed {
			break
		}
	}
	return m.result()
}

func (MomentumContinuation) enter(m *machine, i int) {
	b2, b1, curr := m.bars[i-2], m.bars[i-1], m.bars[i]

	switch {
	case curr.Low <= m.lv.Support && curr.High > b1.High && b1.High > b2.High:
		m.open(journal.Long, i, i, curr.Close)
	case curr.High >= m.lv.Resistance && curr.Low < b1.Low && b1.Low < b2.Low:
		m.open(journal.Short, i, i, curr.Close)
	}
}
