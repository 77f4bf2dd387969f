package journal

import (
	"sort"
	"time"
)

// Log is an ordered-by-date collection with at most one trade per date.
// Functions that build a Log (Merge, the stores) keep that invariant.
type Log []Trade

// DateSet is a set of YYYY-MM-DD keys.
type DateSet map[string]struct{}

func (s DateSet) Has(date time.Time) bool {
	_, ok := s[DateOf(date).Format(DateLayout)]
	return ok
}

// Dates returns the keys present in the log.
func (l Log) Dates() DateSet {
	out := make(DateSet, len(l))
	for _, t := range l {
		out[t.Key()] = struct{}{}
	}
	return out
}

// Sorted returns a copy ordered by date. The sort is stable so equal dates
// keep their relative order.
func (l Log) Sorted() Log {
	out := make(Log, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Unique reports whether every date appears once.
func (l Log) Unique() bool {
	return len(l.Dates()) == len(l)
}

// WithWinRate returns a copy where every trade carries the given rate string.
func (l Log) WithWinRate(rate string) Log {
	out := make(Log, len(l))
	for i, t := range l {
		t.WinRate = rate
		out[i] = t
	}
	return out
}

// Span returns the first and last trade dates of a sorted log.
func (l Log) Span() (time.Time, time.Time) {
	if len(l) == 0 {
		return time.Time{}, time.Time{}
	}
	return l[0].Date, l[len(l)-1].Date
}

// Between returns the trades dated from..to, both days included. A zero
// bound is open.
func (l Log) Between(from, to time.Time) Log {
	var out Log
	for _, t := range l {
		d := t.Key()
		if !from.IsZero() && d < DateOf(from).Format(DateLayout) {
			continue
		}
		if !to.IsZero() && d > DateOf(to).Format(DateLayout) {
			continue
		}
		out = append(out, t)
	}
	return out
}
