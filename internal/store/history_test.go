package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"neonresearch/internal/types"
)

// TestMain ensures no goroutines leak from the database layer.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStore(t *testing.T) (*HistoryStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := NewHistoryStore(path)
	require.NoError(t, err)
	return s, path
}

func turn(query string, at time.Time) types.Turn {
	return types.Turn{
		Query: query,
		Result: types.ResearchResult{
			Topic:     query,
			Summary:   "about " + query,
			KeyPoints: []string{query + " point"},
			ToolsUsed: []string{"search"},
		},
		At: at,
	}
}

func TestRecordAndReadSession(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, s.RecordTurn(ctx, "sess-a", 1, turn("gravity", base)))
	require.NoError(t, s.RecordTurn(ctx, "sess-a", 2, turn("light", base.Add(time.Second))))
	require.NoError(t, s.RecordTurn(ctx, "sess-b", 1, turn("sound", base.Add(2*time.Second))))

	records, err := s.SessionTurns(ctx, "sess-a")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].Number)
	assert.True(t, records[0].Turn.At.Equal(base))
	if diff := cmp.Diff(turn("gravity", base).Result, records[0].Turn.Result); diff != "" {
		t.Fatalf("result round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "light", records[1].Turn.Query)
}

func TestRecordTurnIsIdempotent(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.RecordTurn(ctx, "sess", 1, turn("first", now)))
	require.NoError(t, s.RecordTurn(ctx, "sess", 1, turn("duplicate", now)))

	records, err := s.SessionTurns(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Turn.Query)
}

func TestRecentTurnsNewestFirst(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	for i, q := range []string{"one", "two", "three"} {
		require.NoError(t, s.RecordTurn(ctx, "sess", i+1, turn(q, base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := s.RecentTurns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "three", records[0].Turn.Query)
	assert.Equal(t, "two", records[1].Turn.Query)
}

func TestPersistsAcrossReopen(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordTurn(ctx, "sess", 1, turn("gravity", time.Time{})))
	require.NoError(t, s.Close())

	reopened, err := NewHistoryStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, path, reopened.Path())

	records, err := reopened.RecentTurns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Turn.At.IsZero(), "zero timestamps are replaced on write")
}
