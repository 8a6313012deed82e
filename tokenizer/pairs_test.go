package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairCount struct {
	p Pair
	n int
}

func entries(c *pairCounts) []pairCount {
	var out []pairCount
	it := c.m.Iterator()
	for it.Next() {
		out = append(out, pairCount{it.Key().(Pair), it.Value().(int)})
	}
	return out
}

func TestCountPairs_FirstOccurrenceOrder(t *testing.T) {
	counts := countPairs([]int64{'x', 'y', 'a', 'b', 'a', 'b', 'x', 'y'})

	want := []pairCount{
		{Pair{'x', 'y'}, 2},
		{Pair{'y', 'a'}, 1},
		{Pair{'a', 'b'}, 2},
		{Pair{'b', 'a'}, 1},
		{Pair{'b', 'x'}, 1},
	}
	assert.Equal(t, want, entries(counts))

	best, n, ok := counts.best()
	require.True(t, ok)
	assert.Equal(t, Pair{'x', 'y'}, best)
	assert.Equal(t, 2, n)
}

func TestCountPairs_Empty(t *testing.T) {
	for _, ids := range [][]int64{nil, {7}} {
		counts := countPairs(ids)
		assert.Zero(t, counts.len())
		_, _, ok := counts.best()
		assert.False(t, ok)
	}
}

func TestCountPairsParallel_MatchesSequential(t *testing.T) {
	ids := NewByteTokenizer().Encode(strings.Repeat("abracadabra, zebra bazaar. ", 1000))

	want := entries(countPairs(ids))
	for _, workers := range []int{1, 2, 3, 7, 64} {
		got, err := countPairsParallel(ids, workers)
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, want, entries(got), "workers=%d", workers)
	}
}

func TestMergePair(t *testing.T) {
	p := Pair{1, 2}
	tests := []struct {
		name string
		ids  []int64
		pair Pair
		want []int64
	}{
		{name: "empty", ids: nil, pair: p, want: nil},
		{name: "single", ids: []int64{1}, pair: p, want: []int64{1}},
		{name: "no match", ids: []int64{2, 1, 3}, pair: p, want: []int64{2, 1, 3}},
		{name: "every pair", ids: []int64{1, 2, 1, 2}, pair: p, want: []int64{9, 9}},
		{name: "odd trailing kept", ids: []int64{1, 2, 1, 2, 3}, pair: p, want: []int64{9, 9, 3}},
		{name: "trailing match", ids: []int64{3, 1, 2}, pair: p, want: []int64{3, 9}},
		{name: "unmatched last", ids: []int64{1, 2, 1}, pair: p, want: []int64{9, 1}},
		{name: "overlap odd run", ids: []int64{5, 5, 5}, pair: Pair{5, 5}, want: []int64{9, 5}},
		{name: "overlap even run", ids: []int64{5, 5, 5, 5}, pair: Pair{5, 5}, want: []int64{9, 9}},
		{name: "reversed order does not match", ids: []int64{2, 1}, pair: p, want: []int64{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]int64(nil), tt.ids...)
			got := mergePair(in, tt.pair, 9)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ids, in, "input must not be modified")
		})
	}
}
