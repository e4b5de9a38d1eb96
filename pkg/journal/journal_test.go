package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestAppendAndLoad(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "bull_memory", []Lesson{
		{Situation: "first situation", Recommendation: "buy"},
		{Situation: "second situation", Recommendation: "hold"},
	}))
	require.NoError(t, j.Append(ctx, "bull_memory", []Lesson{
		{Situation: "third situation", Recommendation: "sell"},
	}))

	lessons, err := j.Load(ctx, "bull_memory")
	require.NoError(t, err)
	require.Len(t, lessons, 3)

	// Order of appends is preserved across transactions.
	assert.Equal(t, "first situation", lessons[0].Situation)
	assert.Equal(t, "third situation", lessons[2].Situation)
	assert.False(t, lessons[0].RecordedAt.IsZero())
}

func TestStoresAreIsolated(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "bull_memory", []Lesson{
		{Situation: "bull lesson", Recommendation: "buy"},
	}))
	require.NoError(t, j.Append(ctx, "bear_memory", []Lesson{
		{Situation: "bear lesson", Recommendation: "sell"},
	}))

	bull, err := j.Load(ctx, "bull_memory")
	require.NoError(t, err)
	require.Len(t, bull, 1)
	assert.Equal(t, "bull lesson", bull[0].Situation)

	bear, err := j.Load(ctx, "bear_memory")
	require.NoError(t, err)
	require.Len(t, bear, 1)
}

func TestLoadUnknownStore(t *testing.T) {
	j := openTestJournal(t)

	lessons, err := j.Load(context.Background(), "never_written")
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestEmptyMemoryNameRejected(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	err := j.Append(ctx, "", []Lesson{{Situation: "s", Recommendation: "r"}})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = j.Load(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestClear(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "trader_memory", []Lesson{
		{Situation: "s", Recommendation: "r"},
	}))
	require.NoError(t, j.Clear(ctx, "trader_memory"))

	lessons, err := j.Load(ctx, "trader_memory")
	require.NoError(t, err)
	assert.Empty(t, lessons)

	// Clearing a store that was never written is fine.
	assert.NoError(t, j.Clear(ctx, "never_written"))
}

func TestReplay(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "trader_memory", []Lesson{
		{Situation: "drawdown playbook rules", Recommendation: "cut size", Pinned: true},
		{Situation: "chasing momentum into earnings", Recommendation: "wait for the print"},
		{Situation: "averaging down on a loser", Recommendation: "respect the stop"},
	}))

	store, err := situation.NewStore(situation.Config{Name: "trader_memory"}, nil)
	require.NoError(t, err)
	require.NoError(t, j.Replay(ctx, "trader_memory", store))

	pinned, regular := store.Len()
	assert.Equal(t, 1, pinned)
	assert.Equal(t, 2, regular)
}
