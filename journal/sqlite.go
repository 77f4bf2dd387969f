package journal

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the log in a trades table keyed by (instrument, date), so
// one database can hold the logs of several instruments.
type SQLiteStore struct {
	fileStore
	instrument string
}

func NewSQLite(path, instrument string) *SQLiteStore {
	return &SQLiteStore{fileStore: fileStore{path: path}, instrument: instrument}
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *SQLiteStore) Load() (Log, error) {
	ok, err := s.exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	db, err := s.open()
	if err != nil {
		return nil, unreadable(s.path, err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT date, type, entry, exit, close, exit_reason, pnl, win_rate, result
		FROM trades
		WHERE instrument = ?
		ORDER BY date ASC`, s.instrument)
	if err != nil {
		return nil, unreadable(s.path, err)
	}
	defer rows.Close()

	var out Log
	for rows.Next() {
		var (
			t      Trade
			date   string
			dir    string
			reason string
			result string
		)
		if err := rows.Scan(&date, &dir, &t.Entry, &t.Exit, &t.Close, &reason, &t.PnL, &t.WinRate, &result); err != nil {
			return nil, unreadable(s.path, err)
		}
		if t.Date, err = parseDate(date); err != nil {
			return nil, unreadable(s.path, err)
		}
		if dir != "" {
			if t.Type, err = ParseDirection(dir); err != nil {
				return nil, unreadable(s.path, err)
			}
		}
		t.ExitReason = ExitReason(reason)
		t.Result = Result(result)
		if t.Result == "" {
			t.Result = ResultOf(t.PnL)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unreadable(s.path, err)
	}
	return out, nil
}

// Save replaces every row of the store's instrument inside one transaction.
func (s *SQLiteStore) Save(l Log) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM trades WHERE instrument = ?`, s.instrument); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO trades
		(instrument, date, type, entry, exit, close, exit_reason, pnl, win_rate, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range l {
		if _, err := stmt.Exec(
			s.instrument, t.Key(), string(t.Type), t.Entry, t.Exit, t.Close,
			string(t.ExitReason), t.PnL, t.WinRate, string(t.Result),
		); err != nil {
			return fmt.Errorf("insert %s: %w", t.Key(), err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecordRun(r RunRecord) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`
		INSERT INTO runs
		(run_id, created, instrument, strategy, policy, start_time, end_time,
		 sessions, evaluated, new_trades, trades, wins, losses, win_rate, total_pnl, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Instrument, r.Strategy, r.Policy, r.Start, r.End,
		r.Sessions, r.Evaluated, r.NewTrades, r.Trades, r.Wins, r.Losses,
		r.WinRate, r.TotalPnL, r.MaxDrawdown,
	)
	return err
}

const runColumns = `run_id, created, instrument, strategy, policy, start_time, end_time,
	sessions, evaluated, new_trades, trades, wins, losses, win_rate, total_pnl, max_drawdown`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var r RunRecord
	err := row.Scan(
		&r.RunID, &r.Created, &r.Instrument, &r.Strategy, &r.Policy, &r.Start, &r.End,
		&r.Sessions, &r.Evaluated, &r.NewTrades, &r.Trades, &r.Wins, &r.Losses,
		&r.WinRate, &r.TotalPnL, &r.MaxDrawdown,
	)
	return r, err
}

// ListRuns returns the recorded runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT `+runColumns+`
		FROM runs
		WHERE instrument = ?
		ORDER BY created DESC, run_id DESC
		LIMIT ?`, s.instrument, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one recorded run. ErrRunNotFound when there is none.
func (s *SQLiteStore) GetRun(runID string) (RunRecord, error) {
	db, err := s.open()
	if err != nil {
		return RunRecord{}, err
	}
	defer db.Close()

	r, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}
