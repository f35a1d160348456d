package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tempLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(zap.NewNop().Sugar(), filepath.Join(t.TempDir(), "attempts.jsonl"))
	require.NoError(t, err)
	return l
}

func TestLedgerAppendAndTail(t *testing.T) {
	l := tempLedger(t)
	for i, res := range []string{ResultOK, ResultFail, ResultOK} {
		l.Append(Record{
			Timestamp: time.Date(2026, 1, 1, 10, i, 0, 0, time.UTC),
			Email:     "alice@example.com",
			Domain:    "example.com",
			Result:    res,
		})
	}

	got := l.Tail(10)
	require.Len(t, got, 3)
	// Newest first.
	assert.Equal(t, ResultOK, got[0].Result)
	assert.Equal(t, 2, got[0].Timestamp.Minute())
	assert.Equal(t, 0, got[2].Timestamp.Minute())
	for _, rec := range got {
		assert.NotEmpty(t, rec.ID, "append assigns an id")
	}
}

func TestLedgerTailLimit(t *testing.T) {
	l := tempLedger(t)
	for i := 0; i < 5; i++ {
		l.Append(Record{Timestamp: time.Now().Add(time.Duration(i) * time.Second), Result: ResultFail})
	}
	assert.Len(t, l.Tail(2), 2)
	assert.Len(t, l.Tail(0), 5)
}

func TestLedgerSkipsMalformedLines(t *testing.T) {
	l := tempLedger(t)
	l.Append(Record{Timestamp: time.Now(), Result: ResultOK})

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l.Append(Record{Timestamp: time.Now(), Result: ResultFail})

	got := l.Tail(10)
	require.Len(t, got, 2)
	assert.Equal(t, ResultFail, got[0].Result)
	assert.Equal(t, ResultOK, got[1].Result)
}
