package ranking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medinsight/internal/failures"
	"medinsight/internal/ranking"
)

func TestCounterKeepsFirstSeenOrder(t *testing.T) {
	c := ranking.NewCounter[string]()
	for _, k := range []string{"b", "a", "b", "c", "a", "b"} {
		c.Inc(k)
	}
	c.Add("d", 0)

	assert.Equal(t, []ranking.Entry[string]{
		{Key: "b", Count: 3},
		{Key: "a", Count: 2},
		{Key: "c", Count: 1},
		{Key: "d", Count: 0},
	}, c.Entries())
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 6, c.Total())
	assert.Equal(t, 2, c.Get("a"))
	assert.Equal(t, 0, c.Get("zzz"))
}

func TestTopK(t *testing.T) {
	entries := []ranking.Entry[string]{
		{Key: "alice", Count: 5},
		{Key: "bob", Count: 5},
		{Key: "carol", Count: 3},
	}

	t.Run("ties keep input order", func(t *testing.T) {
		top, err := ranking.TopK(entries, 2)
		require.NoError(t, err)
		assert.Equal(t, []ranking.Entry[string]{{Key: "alice", Count: 5}, {Key: "bob", Count: 5}}, top)
	})

	t.Run("k larger than input", func(t *testing.T) {
		top, err := ranking.TopK(entries, 10)
		require.NoError(t, err)
		assert.Len(t, top, 3)
	})

	t.Run("sorts descending", func(t *testing.T) {
		top, err := ranking.TopK([]ranking.Entry[int]{{1, 1}, {2, 9}, {3, 4}, {4, 9}}, 4)
		require.NoError(t, err)
		assert.Equal(t, []ranking.Entry[int]{{2, 9}, {4, 9}, {3, 4}, {1, 1}}, top)
	})

	t.Run("does not modify input", func(t *testing.T) {
		input := []ranking.Entry[string]{{"x", 1}, {"y", 2}}
		_, err := ranking.TopK(input, 1)
		require.NoError(t, err)
		assert.Equal(t, "x", input[0].Key)
	})

	t.Run("non-positive k", func(t *testing.T) {
		_, err := ranking.TopK(entries, 0)
		assert.ErrorIs(t, err, failures.ErrInvalidRange)
		_, err = ranking.TopK(entries, -3)
		assert.ErrorIs(t, err, failures.ErrInvalidRange)
	})

	t.Run("empty input", func(t *testing.T) {
		top, err := ranking.TopK([]ranking.Entry[string]{}, 3)
		require.NoError(t, err)
		assert.Empty(t, top)
	})
}

func TestExtremal(t *testing.T) {
	entries := []ranking.Entry[string]{
		{Key: "2024-01-01", Count: 2},
		{Key: "2024-01-02", Count: 7},
		{Key: "2024-01-03", Count: 0},
		{Key: "2024-01-04", Count: 7},
		{Key: "2024-01-05", Count: 0},
	}
	maxEntry, minEntry, err := ranking.Extremal(entries)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", maxEntry.Key)
	assert.Equal(t, "2024-01-03", minEntry.Key)

	_, _, err = ranking.Extremal([]ranking.Entry[string]{})
	assert.ErrorIs(t, err, failures.ErrDegenerateInput)
}
