package journal

import (
	"fmt"
	"strings"
)

// Policy decides which row survives when a date appears more than once.
type Policy int

const (
	// PolicyResolve recomputes everything and lets the newest row win.
	PolicyResolve Policy = iota
	// PolicyAppend never recomputes stored dates; the oldest row wins.
	PolicyAppend
)

func (p Policy) String() string {
	switch p {
	case PolicyResolve:
		return "upsert"
	case PolicyAppend:
		return "incremental"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// SkipsKnownDates reports whether sessions already in the store should not be
// evaluated again.
func (p Policy) SkipsKnownDates() bool {
	return p == PolicyAppend
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upsert", "resolve", "overwrite":
		return PolicyResolve, nil
	case "incremental", "append":
		return PolicyAppend, nil
	}
	return 0, fmt.Errorf("unknown merge policy %q (supported: upsert, incremental)", s)
}

// Merge concatenates existing and batch, drops duplicate dates according to
// p and returns the result sorted by date. Neither input is modified.
func Merge(existing, batch Log, p Policy) Log {
	combined := make(Log, 0, len(existing)+len(batch))
	combined = append(combined, existing...)
	combined = append(combined, batch...)

	var kept Log
	if p == PolicyAppend {
		kept = keepFirst(combined)
	} else {
		kept = keepLast(combined)
	}
	return kept.Sorted()
}

func keepFirst(l Log) Log {
	seen := make(DateSet, len(l))
	out := make(Log, 0, len(l))
	for _, t := range l {
		if _, ok := seen[t.Key()]; ok {
			continue
		}
		seen[t.Key()] = struct{}{}
		out = append(out, t)
	}
	return out
}

func keepLast(l Log) Log {
	last := make(map[string]int, len(l))
	for i, t := range l {
		last[t.Key()] = i
	}
	out := make(Log, 0, len(last))
	for i, t := range l {
		if last[t.Key()] == i {
			out = append(out, t)
		}
	}
	return out
}

// Diff counts how batch relates to existing: dates that are new and dates
// that already had a row.
func Diff(existing, batch Log) (added, overlapping int) {
	known := existing.Dates()
	for k := range batch.Dates() {
		if _, ok := known[k]; ok {
			overlapping++
		} else {
			added++
		}
	}
	return added, overlapping
}
