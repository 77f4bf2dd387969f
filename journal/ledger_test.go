package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLedgerEmptyStoreOneTrade(t *testing.T) {
	t.Parallel()

	for _, p := range []Policy{PolicyResolve, PolicyAppend} {
		t.Run(p.String(), func(t *testing.T) {
			t.Parallel()

			store := NewXLSX(filepath.Join(t.TempDir(), "trade_log.xlsx"), SchemaFull)
			l := NewLedger(store, p, nil)

			snap := l.Read()
			assert.False(t, snap.Degraded)
			assert.Empty(t, snap.Log)

			batch := Log{NewTrade(day("2024-03-15"), Long, 4002, 4011, 4013, ResistanceConfirmed)}.WithWinRate("100.00%")
			out, err := l.Write(snap, batch)
			require.NoError(t, err)
			assert.True(t, out.Written)
			assert.Equal(t, 1, out.Added)

			got, err := store.Load()
			require.NoError(t, err)
			if diff := cmp.Diff(batch, got); diff != "" {
				t.Fatalf("store mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLedgerEmptyBatchDoesNotWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trade_log.csv")
	l := NewLedger(NewCSV(path, SchemaFull), PolicyResolve, nil)

	out, err := l.Write(l.Read(), nil)
	require.NoError(t, err)
	assert.True(t, out.Unchanged())
	assert.Empty(t, out.Merged)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLedgerAppendReportsExistingUnchanged(t *testing.T) {
	t.Parallel()

	store := NewCSV(filepath.Join(t.TempDir(), "trade_log.csv"), SchemaMinimal)
	require.NoError(t, store.Save(sampleLog()))

	l := NewLedger(store, PolicyAppend, nil)
	out, err := l.Write(l.Read(), Log{})
	require.NoError(t, err)

	assert.True(t, out.Unchanged())
	assert.Len(t, out.Merged, len(sampleLog()))
}

func TestLedgerResolveReplacesDates(t *testing.T) {
	t.Parallel()

	store := NewCSV(filepath.Join(t.TempDir(), "trade_log.csv"), SchemaFull)
	require.NoError(t, store.Save(sampleLog()))

	l := NewLedger(store, PolicyResolve, nil)
	batch := Log{
		NewTrade(day("2024-03-15"), Long, 4001, 4009, 4009, ClosingPrice),
		NewTrade(day("2024-03-19"), Short, 4030, 4025, 4025, SupportConfirmed),
	}

	out, err := l.Write(l.Read(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Added)
	assert.Equal(t, 1, out.Replaced)
	require.Len(t, out.Merged, 4)
	assert.Equal(t, Long, out.Merged[1].Type)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, out.Merged, got)
}

func TestLedgerAppendIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewCSV(filepath.Join(t.TempDir(), "trade_log.csv"), SchemaFull)
	require.NoError(t, store.Save(sampleLog()[:1]))

	l := NewLedger(store, PolicyAppend, nil)
	batch := Log{NewTrade(day("2024-03-19"), Short, 4030, 4025, 4025, SupportConfirmed)}

	_, err := l.Write(l.Read(), batch)
	require.NoError(t, err)
	once, err := store.Load()
	require.NoError(t, err)

	out, err := l.Write(l.Read(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Added)
	twice, err := store.Load()
	require.NoError(t, err)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second run changed the store (-once +twice):\n%s", diff)
	}
}

func TestLedgerUnreadableStoreDegrades(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "trade_log.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a workbook"), 0644))

	core, logs := observer.New(zap.WarnLevel)
	l := NewLedger(NewXLSX(path, SchemaFull), PolicyResolve, zap.New(core))

	snap := l.Read()
	assert.True(t, snap.Degraded)
	assert.Empty(t, snap.Log)
	require.Len(t, snap.Warnings, 1)
	assert.Contains(t, snap.Warnings[0], "unreadable")
	assert.Equal(t, 1, logs.FilterMessageSnippet("unreadable").Len())

	batch := Log{NewTrade(day("2024-03-15"), Long, 4002, 4011, 4013, ResistanceConfirmed)}
	out, err := l.Write(snap, batch)
	require.NoError(t, err)

	assert.True(t, out.Written)
	assert.Equal(t, path+".unreadable", out.Quarantined)
	assert.Len(t, out.Warnings, 2)

	kept, err := os.ReadFile(path + ".unreadable")
	require.NoError(t, err)
	assert.Equal(t, "definitely not a workbook", string(kept))

	got, err := NewXLSX(path, SchemaFull).Load()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLedgerUnreadableStoreEmptyBatchLeavesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trade_log.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Entry\n2024-03-15,1\n"), 0644))

	l := NewLedger(NewCSV(path, SchemaFull), PolicyResolve, nil)
	snap := l.Read()
	require.True(t, snap.Degraded)

	out, err := l.Write(snap, nil)
	require.NoError(t, err)
	assert.True(t, out.Unchanged())
	assert.Empty(t, out.Quarantined)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
