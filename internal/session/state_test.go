package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neonresearch/internal/types"
)

func result(topic string) types.ResearchResult {
	return types.ResearchResult{Topic: topic, KeyPoints: []string{topic + " point"}}
}

func TestNewSessionIsReady(t *testing.T) {
	s := New()
	assert.Equal(t, types.StatusReady, s.Status())
	assert.Zero(t, s.Len())
	assert.NotEmpty(t, s.ID())
	assert.NotEqual(t, s.ID(), New().ID())
	assert.Equal(t, "fixed", New(WithID("fixed")).ID())
}

func TestTurnLifecycle(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s := New(WithClock(clock))

	require.NoError(t, s.BeginTurn())
	assert.Equal(t, types.StatusResearching, s.Status())

	turn, err := s.CompleteTurn("  gravity ", result("gravity"))
	require.NoError(t, err)
	assert.Equal(t, "gravity", turn.Query)
	assert.Equal(t, clock.Now(), turn.At)
	assert.Equal(t, types.StatusReady, s.Status())
	assert.Equal(t, 1, s.Len())
}

func TestBeginTurnTwiceFails(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginTurn())

	err := s.BeginTurn()
	var stateErr *types.InvalidStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, "BeginTurn", stateErr.Op)
	assert.Equal(t, types.StatusResearching, s.Status())
}

func TestCompleteWithoutBeginFails(t *testing.T) {
	s := New()
	_, err := s.CompleteTurn("q", result("q"))
	var stateErr *types.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, types.StatusReady, stateErr.Status)
	assert.Zero(t, s.Len())
}

func TestCompleteRejectsBlankQuery(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginTurn())
	_, err := s.CompleteTurn("   ", result("x"))
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, types.StatusReady, s.Status(), "blank query ends the turn")
	assert.Zero(t, s.Len())

	// The session accepts the next turn without an explicit abort.
	require.NoError(t, s.BeginTurn())
	_, err = s.CompleteTurn("gravity", result("gravity"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestAbortTurnLeavesHistoryUnchanged(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginTurn())
	_, err := s.CompleteTurn("first", result("first"))
	require.NoError(t, err)

	require.NoError(t, s.BeginTurn())
	require.NoError(t, s.AbortTurn())

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, types.StatusReady, s.Status())
	assert.Error(t, s.AbortTurn(), "abort outside a turn is invalid")
}

func TestHistoryPreservesOrderAndIsolation(t *testing.T) {
	s := New()
	queries := []string{"alpha", "beta", "gamma"}
	for _, q := range queries {
		require.NoError(t, s.BeginTurn())
		_, err := s.CompleteTurn(q, result(q))
		require.NoError(t, err)
	}

	history := s.History()
	var got []string
	for _, turn := range history {
		got = append(got, turn.Query)
	}
	if diff := cmp.Diff(queries, got); diff != "" {
		t.Fatalf("history order mismatch (-want +got):\n%s", diff)
	}

	history[0].Query = "mutated"
	history[0].Result.KeyPoints[0] = "mutated"
	fresh := s.History()
	assert.Equal(t, "alpha", fresh[0].Query)
	assert.Equal(t, "alpha point", fresh[0].Result.KeyPoints[0])
}

func TestStatusReadersDuringTurns(t *testing.T) {
	s := New()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				st := s.Status()
				if st != types.StatusReady && st != types.StatusResearching {
					t.Errorf("unexpected status %v", st)
					return
				}
				_ = s.History()
			}
		}
	}()

	for i := 0; i < 100; i++ {
		require.NoError(t, s.BeginTurn())
		_, err := s.CompleteTurn("q", result("q"))
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, 100, s.Len())
}
