package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnreadableStore wraps any failure to parse an existing backing store.
	ErrUnreadableStore = errors.New("journal: unreadable trade log")

	ErrUnknownStore = errors.New("journal: unknown store type")

	ErrRunNotFound = errors.New("journal: run not found")
)

// Store reads and writes a whole trade log. A missing backing store loads as
// an empty log. Stores keep no state between calls.
type Store interface {
	Load() (Log, error)
	Save(Log) error
	Location() string
}

// Quarantiner is implemented by stores backed by a single file that can be
// moved aside when it can't be read.
type Quarantiner interface {
	Quarantine() (string, error)
}

// RunRecord summarizes one run for stores that keep run history.
type RunRecord struct {
	RunID      string
	Created    time.Time
	Instrument string
	Strategy   string
	Policy     string
	Start      time.Time
	End        time.Time

	Sessions  int
	Evaluated int
	NewTrades int

	Trades      int
	Wins        int
	Losses      int
	WinRate     float64
	TotalPnL    float64
	MaxDrawdown float64

	Store string
	Notes []string
}

// RunRecorder is implemented by stores that keep run history.
type RunRecorder interface {
	RecordRun(RunRecord) error
}

const (
	KindXLSX   = "xlsx"
	KindCSV    = "csv"
	KindSQLite = "sqlite"
)

// KindFromPath guesses the store type from the file extension.
func KindFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return KindCSV
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	}
	return KindXLSX
}

// Open returns the store for kind. An empty kind is guessed from path.
// instrument scopes rows in stores that can hold several instruments.
func Open(kind, path, instrument string, schema Schema) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: store path is required")
	}
	if kind == "" {
		kind = KindFromPath(path)
	}
	switch strings.ToLower(kind) {
	case KindXLSX, "excel":
		return NewXLSX(path, schema), nil
	case KindCSV:
		return NewCSV(path, schema), nil
	case KindSQLite, "sqlite3":
		return NewSQLite(path, instrument), nil
	}
	return nil, fmt.Errorf("%w %q (supported: xlsx, csv, sqlite)", ErrUnknownStore, kind)
}

// fileStore carries the path handling shared by the file backed stores.
type fileStore struct {
	path string
}

func (s fileStore) Location() string {
	if abs, err := filepath.Abs(s.path); err == nil {
		return abs
	}
	return s.path
}

func (s fileStore) exists() (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Quarantine renames the backing file to <path>.unreadable so a following
// Save doesn't destroy it.
func (s fileStore) Quarantine() (string, error) {
	dst := s.path + ".unreadable"
	if err := os.Rename(s.path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// atomicWrite lets write fill a temp file next to path and renames it over
// path once write succeeds.
func atomicWrite(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp"+filepath.Ext(path))
	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func unreadable(path string, err error) error {
	return fmt.Errorf("%w %s: %v", ErrUnreadableStore, path, err)
}
