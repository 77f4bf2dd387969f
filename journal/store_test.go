package journal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleLog() Log {
	return Log{
		NewTrade(day("2024-03-14"), Long, 4002.5, 4011.25, 4013, ResistanceConfirmed),
		NewTrade(day("2024-03-15"), Short, 4019, 4021.5, 4021.5, ClosingPrice),
		NewTrade(day("2024-03-18"), Long, 4000, 4000, 4000, ClosingPrice),
	}.WithWinRate("33.33%")
}

func TestStoresRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		open func(dir string) Store
	}{
		{"xlsx", func(dir string) Store { return NewXLSX(filepath.Join(dir, "trade_log.xlsx"), SchemaFull) }},
		{"csv", func(dir string) Store { return NewCSV(filepath.Join(dir, "trade_log.csv"), SchemaFull) }},
		{"sqlite", func(dir string) Store { return NewSQLite(filepath.Join(dir, "trades.db"), "SPX") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := tt.open(t.TempDir())
			want := sampleLog()

			require.NoError(t, s.Save(want))
			got, err := s.Load()
			require.NoError(t, err)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}

			// Saving again replaces rather than appends.
			require.NoError(t, s.Save(want[:1]))
			got, err = s.Load()
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestStoresMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, s := range []Store{
		NewXLSX(filepath.Join(dir, "none.xlsx"), SchemaFull),
		NewCSV(filepath.Join(dir, "none.csv"), SchemaFull),
		NewSQLite(filepath.Join(dir, "none.db"), "SPX"),
	} {
		l, err := s.Load()
		require.NoError(t, err, s.Location())
		assert.Empty(t, l, s.Location())
	}

	// Load must not create the file.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoresUnreadableFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	garbage := bytes.Repeat([]byte("this is not a trade log\n"), 64)

	for _, name := range []string{"bad.xlsx", "bad.db"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, garbage, 0644))

		s, err := Open("", path, "SPX", SchemaFull)
		require.NoError(t, err)

		_, err = s.Load()
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrUnreadableStore), "%s: %v", name, err)
	}
}

func TestCSVStoreMalformedRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing column", "Date,Entry,Exit\n2024-03-14,1,2\n", `missing column "PnL"`},
		{"bad date", "Date,Entry,Exit,PnL\nyesterday,1,2,1\n", "row 2"},
		{"bad number", "Date,Entry,Exit,PnL\n2024-03-14,1,two,1\n", "bad Exit"},
		{"bad type", "Date,Type,Entry,Exit,PnL\n2024-03-14,FLAT,1,2,1\n", "unknown direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "log.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := NewCSV(path, SchemaFull).Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnreadableStore)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCSVStoreReadsAnyColumnOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.csv")
	content := strings.Join([]string{
		"PnL,Date,Exit,Entry,Extra",
		"-2,2024-03-15,4020,4018,x",
		",,,,",
		"7.25,03/14/2024,4012.5,4005.25,y",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	l, err := NewCSV(path, SchemaMinimal).Load()
	require.NoError(t, err)
	require.Len(t, l, 2)

	assert.Equal(t, "2024-03-14", l[0].Key())
	assert.Equal(t, Profit, l[0].Result)
	assert.Equal(t, 4005.25, l[0].Entry)
	assert.Equal(t, "2024-03-15", l[1].Key())
	assert.Equal(t, Loss, l[1].Result)
	assert.Equal(t, Direction(""), l[1].Type)
}

func TestCSVStoreHeaderPerSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, sch := range []Schema{SchemaFull, SchemaMinimal} {
		path := filepath.Join(dir, sch.String()+".csv")
		require.NoError(t, NewCSV(path, sch).Save(sampleLog()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")

		require.Len(t, lines, 4)
		assert.Equal(t, strings.Join(sch.Columns(), ","), lines[0])
	}

	data, err := os.ReadFile(filepath.Join(dir, "minimal.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-03-14,LONG,4002.5,4011.25,4013,8.75,Profit")
	assert.NotContains(t, string(data), "Win Rate")
}

func TestXLSXStoreLayout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trade_log.xlsx")
	require.NoError(t, NewXLSX(path, SchemaFull).Save(sampleLog()))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.Equal(t, []string{TradesSheet}, fx.GetSheetList())

	rows, err := fx.GetRows(TradesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, SchemaFull.Columns(), rows[0])
	assert.Equal(t, "2024-03-14", rows[1][0])
	assert.Equal(t, "Resistance Confirmed", rows[1][4])
	assert.Equal(t, "33.33%", rows[1][6])

	// No temp file is left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestXLSXStoreReadsSerialDates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "external.xlsx")

	fx := excelize.NewFile()
	sheet := fx.GetSheetName(0)
	require.NoError(t, fx.SetSheetRow(sheet, "A1", &[]any{"Date", "Entry", "Exit", "PnL"}))
	require.NoError(t, fx.SetSheetRow(sheet, "A2", &[]any{time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), 10.0, 12.0, 2.0}))
	require.NoError(t, fx.SaveAs(path))
	require.NoError(t, fx.Close())

	l, err := NewXLSX(path, SchemaFull).Load()
	require.NoError(t, err)
	require.Len(t, l, 1)
	assert.Equal(t, "2024-03-14", l[0].Key())
	assert.Equal(t, Profit, l[0].Result)
}

func TestSQLiteStoreScopesByInstrument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.db")
	spx := NewSQLite(path, "SPX")
	ndx := NewSQLite(path, "NDX")

	require.NoError(t, spx.Save(sampleLog()))
	require.NoError(t, ndx.Save(sampleLog()[:1]))
	require.NoError(t, spx.Save(sampleLog()[:2]))

	a, err := spx.Load()
	require.NoError(t, err)
	b, err := ndx.Load()
	require.NoError(t, err)

	assert.Len(t, a, 2)
	assert.Len(t, b, 1)
}

func TestSQLiteStoreRecordsRuns(t *testing.T) {
	t.Parallel()

	s := NewSQLite(filepath.Join(t.TempDir(), "trades.db"), "SPX")

	created := time.Date(2024, 3, 18, 17, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2"} {
		require.NoError(t, s.RecordRun(RunRecord{
			RunID:       id,
			Created:     created.Add(time.Duration(i) * time.Hour),
			Instrument:  "SPX",
			Strategy:    "reversal",
			Policy:      PolicyResolve.String(),
			Start:       day("2024-03-14"),
			End:         day("2024-03-18"),
			Sessions:    3,
			Evaluated:   3,
			NewTrades:   2,
			Trades:      2,
			Wins:        1,
			Losses:      1,
			WinRate:     0.5,
			TotalPnL:    6.25,
			MaxDrawdown: -2.5,
		}))
	}

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 0.5, runs[1].WinRate)
	assert.Equal(t, -2.5, runs[1].MaxDrawdown)
	assert.True(t, runs[1].Start.Equal(day("2024-03-14")))

	runs, err = s.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	got, err := s.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, 6.25, got.TotalPnL)
	assert.True(t, got.Created.Equal(created))

	_, err = s.GetRun("run-9")
	assert.ErrorIs(t, err, ErrRunNotFound)

	var _ RunRecorder = s
}

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		path string
		want any
	}{
		{"", "trade_log.xlsx", &XLSXStore{}},
		{"", "trade_log.csv", &CSVStore{}},
		{"", "trades.sqlite3", &SQLiteStore{}},
		{"", "trade_log", &XLSXStore{}},
		{"csv", "trade_log.xlsx", &CSVStore{}},
		{"SQLite", "x", &SQLiteStore{}},
	}

	for _, tt := range tests {
		s, err := Open(tt.kind, tt.path, "SPX", SchemaFull)
		require.NoError(t, err)
		assert.IsType(t, tt.want, s, "%s %s", tt.kind, tt.path)
	}

	_, err := Open("parquet", "x.parquet", "SPX", SchemaFull)
	assert.ErrorIs(t, err, ErrUnknownStore)

	_, err = Open("", "", "SPX", SchemaFull)
	assert.Error(t, err)
}

func TestParseSchema(t *testing.T) {
	t.Parallel()

	s, err := ParseSchema("minimal")
	require.NoError(t, err)
	assert.Equal(t, SchemaMinimal, s)

	s, err = ParseSchema("")
	require.NoError(t, err)
	assert.Equal(t, SchemaFull, s)

	_, err = ParseSchema("wide")
	assert.Error(t, err)
}
