package journal

import (
	"fmt"

	"go.uber.org/zap"
)

// Ledger runs the read, merge, write cycle of one run against a Store.
// It holds no state between calls.
type Ledger struct {
	Store  Store
	Policy Policy
	Logger *zap.Logger
}

// Snapshot is the log as read at the start of a run.
type Snapshot struct {
	Log Log

	// Degraded is set when the backing store existed but couldn't be read;
	// Log is then empty.
	Degraded bool
	Warnings []string
}

// Outcome describes what Write did.
type Outcome struct {
	Merged   Log
	Written  bool
	Added    int
	Replaced int
	Location string

	// Quarantined is where an unreadable store was moved before the write.
	Quarantined string
	Warnings    []string
}

// Unchanged reports whether the store was left as it was.
func (o Outcome) Unchanged() bool {
	return !o.Written
}

func NewLedger(store Store, p Policy, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{Store: store, Policy: p, Logger: logger}
}

func (l *Ledger) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// Read loads the existing log. A store that can't be read degrades to an
// empty snapshot with a warning instead of failing the run.
func (l *Ledger) Read() Snapshot {
	existing, err := l.Store.Load()
	if err != nil {
		l.logger().Warn("trade log unreadable, continuing with an empty log",
			zap.String("store", l.Store.Location()),
			zap.Error(err),
		)
		return Snapshot{Degraded: true, Warnings: []string{err.Error()}}
	}
	if !existing.Unique() {
		l.logger().Warn("trade log holds duplicate dates, they will be collapsed on the next write",
			zap.String("store", l.Store.Location()),
			zap.Int("rows", len(existing)),
		)
	}
	return Snapshot{Log: existing.Sorted()}
}

// Write merges batch into snap under the ledger's policy and saves the
// result. An empty batch never touches the store.
func (l *Ledger) Write(snap Snapshot, batch Log) (Outcome, error) {
	out := Outcome{
		Merged:   snap.Log,
		Location: l.Store.Location(),
		Warnings: append([]string(nil), snap.Warnings...),
	}
	if len(batch) == 0 {
		l.logger().Info("no new trades, trade log unchanged",
			zap.String("store", out.Location),
			zap.Stringer("policy", l.Policy),
		)
		return out, nil
	}

	added, overlapping := Diff(snap.Log, batch)
	merged := Merge(snap.Log, batch, l.Policy)

	if snap.Degraded {
		if q, ok := l.Store.(Quarantiner); ok {
			dst, err := q.Quarantine()
			if err != nil {
				return out, fmt.Errorf("quarantine unreadable trade log %s: %w", out.Location, err)
			}
			out.Quarantined = dst
			out.Warnings = append(out.Warnings, fmt.Sprintf("unreadable trade log moved to %s", dst))
			l.logger().Warn("moved unreadable trade log aside", zap.String("to", dst))
		}
	}

	if err := l.Store.Save(merged); err != nil {
		return out, fmt.Errorf("save trade log %s: %w", out.Location, err)
	}

	out.Merged = merged
	out.Written = true
	out.Added = added
	if l.Policy == PolicyResolve {
		out.Replaced = overlapping
	}

	l.logger().Info("trade log written",
		zap.String("store", out.Location),
		zap.Stringer("policy", l.Policy),
		zap.Int("rows", len(merged)),
		zap.Int("added", out.Added),
		zap.Int("replaced", out.Replaced),
	)
	return out, nil
}
