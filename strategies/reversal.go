package strategies

import (
	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/market"
	"github.com/rustyeddy/rangetrader/session"
)

// ReversalConfirm waits for a candle that tests a level and rejects it, then
// one more bar that confirms the turn, and enters on the open of the bar
// after that. It exits when the opposite level is tested and the following
// bar reverses, or at the session close.
type ReversalConfirm struct{}

func (ReversalConfirm) Name() string { return "reversal" }
func (ReversalConfirm) Window() session.Window { return session.MorningWindow }
func (ReversalConfirm) Schema() journal.Schema { return journal.SchemaFull }

func (r ReversalConfirm) Evaluate(bars []market.Bar, lv session.Levels, closePrice float64) (Outcome, bool) {
	m := newMachine(bars, lv, closePrice)

	for i := range bars {
		if m.state == awaiting && m.remaining(i) >= 3 {
			r.enter(m, i)
		}
		// Exits are checked on the same pass, starting with the signal bar.
		if m.state == positioned && !m.last(i) {
			r.exit(m, i)
		}
		m.closeAtSessionEnd(i, journal.ClosingPrice)
		if m.state == closed {
			break
		}
	}
	return m.result()
}

func (ReversalConfirm) enter(m *machine, i int) {
	curr, next, fill := m.bars[i], m.bars[i+1], m.bars[i+2]
	sup, res := m.lv.Support, m.lv.Resistance

	// The long candle shape wins: if it matches without confirmation the
	// short side is not looked at for this bar.
	switch {
	case curr.Low <= sup && curr.Open > sup && curr.Close > sup:
		if next.High > curr.High {
			m.open(journal.Long, i, i+2, fill.Open)
		}
	case curr.High >= res && curr.Open < res && curr.Close < res:
		if next.Low < curr.Low {
			m.open(journal.Short, i, i+2, fill.Open)
		}
	}
}

func (ReversalConfirm) exit(m *machine, i int) {
	curr, next := m.bars[i], m.bars[i+1]

	switch m.out.Direction {
	case journal.Long:
		if curr.High >= m.lv.Resistance && next.Low < curr.Low {
			m.close(i+1, next.Open, journal.ResistanceConfirmed)
		}
	case journal.Short:
		if curr.Low <= m.lv.Support && next.High > curr.High {
			m.close(i+1, next.Open, journal.SupportConfirmed)
		}
	}
}
