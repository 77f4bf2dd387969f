package strategies

import (
	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/market"
	"github.com/rustyeddy/rangetrader/session"
)

// state is where the per-session machine is. It only moves forward:
// awaiting -> positioned -> closed.
type state int

const (
	awaiting state = iota
	positioned
	closed
)

func (s state) String() string {
	switch s {
	case awaiting:
		return "awaiting"
	case positioned:
		return "positioned"
	case closed:
		return "closed"
	}
	return "unknown"
}

// Outcome is the single position a strategy took in a session.
type Outcome struct {
	Direction journal.Direction
	Entry     float64
	Exit      float64
	Reason    journal.ExitReason

	// Indexes into the decision window. SignalIndex is the bar that
	// triggered, EntryIndex the bar whose price filled the entry.
	SignalIndex int
	EntryIndex  int
	ExitIndex   int
}

// machine scans one decision window forward. Lookahead is bounded by the
// callers to at most two bars.
type machine struct {
	bars       []market.Bar
	lv         session.Levels
	closePrice float64

	state state
	out   Outcome
}

func newMachine(bars []market.Bar, lv session.Levels, closePrice float64) *machine {
	return &machine{bars: bars, lv: lv, closePrice: closePrice}
}

// remaining counts bars from i to the end, i included.
func (m *machine) remaining(i int) int {
	return len(m.bars) - i
}

func (m *machine) last(i int) bool {
	return i == len(m.bars)-1
}

func (m *machine) open(dir journal.Direction, signal, entry int, price float64) {
	m.out = Outcome{
		Direction:   dir,
		Entry:       price,
		SignalIndex: signal,
		EntryIndex:  entry,
	}
	m.state = positioned
}

func (m *machine) close(i int, price float64, reason journal.ExitReason) {
	m.out.Exit = price
	m.out.Reason = reason
	m.out.ExitIndex = i
	m.state = closed
}

// closeAtSessionEnd exits at the session close once the last bar is reached.
func (m *machine) closeAtSessionEnd(i int, reason journal.ExitReason) {
	if m.state == positioned && m.last(i) {
		m.close(i, m.closePrice, reason)
	}
}

func (m *machine) result() (Outcome, bool) {
	if m.state != closed {
		return Outcome{}, false
	}
	return m.out, true
}
