package tokenizer

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"golang.org/x/sync/errgroup"
)

// Pair is two adjacent token ids. A Pair learned during training merges
// into a single new id.
type Pair struct {
	A, B int64
}

// pairCounts is a pair-frequency table that iterates in the order pairs were
// first inserted. Ties on the maximum count are broken by that order.
type pairCounts struct {
	m *linkedhashmap.Map
}

func newPairCounts() *pairCounts {
	return &pairCounts{m: linkedhashmap.New()}
}

func (c *pairCounts) add(p Pair, n int) {
	if v, ok := c.m.Get(p); ok {
		c.m.Put(p, v.(int)+n)
		return
	}
	c.m.Put(p, n)
}

func (c *pairCounts) len() int { return c.m.Size() }

// best returns the pair with the highest count. Among equal counts the pair
// inserted first wins. ok is false when the table is empty.
func (c *pairCounts) best() (best Pair, count int, ok bool) {
	it := c.m.Iterator()
	for it.Next() {
		n := it.Value().(int)
		if !ok || n > count {
			best, count, ok = it.Key().(Pair), n, true
		}
	}
	return best, count, ok
}

// countPairs counts every adjacent pair of ids in a single left to right scan.
func countPairs(ids []int64) *pairCounts {
	counts := newPairCounts()
	for i := 0; i+1 < len(ids); i++ {
		counts.add(Pair{ids[i], ids[i+1]}, 1)
	}
	return counts
}

// minChunk is the smallest number of pair positions worth a goroutine.
const minChunk = 4096

// countPairsParallel splits the pair positions of ids into contiguous chunks,
// counts each chunk concurrently and folds the partial tables back in chunk
// order. Folding in chunk order reproduces the first-occurrence order of the
// sequential scan, so the result is identical to countPairs.
func countPairsParallel(ids []int64, workers int) (*pairCounts, error) {
	positions := len(ids) - 1
	if workers <= 1 || positions < 2*minChunk {
		return countPairs(ids), nil
	}
	if limit := positions / minChunk; workers > limit {
		workers = limit
	}

	size := (positions + workers - 1) / workers
	// rounding size up can leave trailing workers without positions
	workers = (positions + size - 1) / size
	parts := make([]*pairCounts, workers)

	var g errgroup.Group
	for w := range parts {
		start := w * size
		end := min(start+size, positions)
		g.Go(func() error {
			// a chunk owns pairs starting at [start, end) so it reads ids[end]
			parts[w] = countPairs(ids[start : end+1])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := newPairCounts()
	for _, part := range parts {
		it := part.m.Iterator()
		for it.Next() {
			counts.add(it.Key().(Pair), it.Value().(int))
		}
	}
	return counts, nil
}

// mergePair replaces every non-overlapping occurrence of p in ids with newID,
// scanning left to right. The last id is always kept when it is not consumed
// by a match. Returns the original slice if the pair is not found.
func mergePair(ids []int64, p Pair, newID int64) []int64 {
	found := false
	for i := 0; i+1 < len(ids); i++ {
		if ids[i] == p.A && ids[i+1] == p.B {
			found = true
			break
		}
	}
	if !found {
		return ids
	}

	out := make([]int64, 0, len(ids)-1)
	i := 0
	for i < len(ids) {
		if i+1 < len(ids) && ids[i] == p.A && ids[i+1] == p.B {
			out = append(out, newID)
			i += 2
		} else {
			out = append(out, ids[i])
			i++
		}
	}
	return out
}
