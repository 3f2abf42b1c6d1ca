package trainer

import (
	"container/heap"
	"runtime"
	"sort"
	"sync"
)

// pair is an adjacent (left, right) symbol pair in the stream.
type pair struct {
	left  int
	right int
}

// pairHeap orders candidates by count descending, then smaller left id,
// then smaller right id, so training is reproducible for identical corpus
// and configuration.
type heapEntry struct {
	count int
	p     pair
}

type pairHeap []heapEntry

func (h pairHeap) Len() int { return len(h) }
func (h pairHeap) Less(i, j int) bool {
	if h[i].count != h[j].count {
		return h[i].count > h[j].count
	}
	if h[i].p.left != h[j].p.left {
		return h[i].p.left < h[j].p.left
	}
	return h[i].p.right < h[j].p.right
}
func (h pairHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *pairHeap) Push(x any) { *h = append(*h, x.(heapEntry)) }
func (h *pairHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// pairIndex tracks adjacent-pair counts and candidate occurrence positions
// over the live stream. Counts are exact and maintained incrementally;
// position lists and heap entries may go stale and are validated lazily,
// so no operation ever rescans the whole stream.
type pairIndex struct {
	counts map[pair]int
	pos    map[pair][]int
	heap   pairHeap
}

func newPairIndex() *pairIndex {
	return &pairIndex{
		counts: make(map[pair]int),
		pos:    make(map[pair][]int),
	}
}

// build computes the initial counts over a freshly symbolized stream.
// The scan is embarrassingly parallel: disjoint shards are counted by
// independent workers and the partial results summed in shard order, so
// the outcome is identical to a serial scan.
func (ix *pairIndex) build(syms []int, workers int) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := len(syms) - 1 // number of adjacent pairs
	if n <= 0 {
		return
	}
	if workers > n {
		workers = 1
	}

	type shard struct {
		counts map[pair]int
		pos    map[pair][]int
	}
	shards := make([]shard, workers)
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			shards[w] = shard{counts: map[pair]int{}, pos: map[pair][]int{}}
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			counts := make(map[pair]int)
			pos := make(map[pair][]int)
			for i := lo; i < hi; i++ {
				p := pair{syms[i], syms[i+1]}
				counts[p]++
				pos[p] = append(pos[p], i)
			}
			shards[w] = shard{counts: counts, pos: pos}
		}(w, lo, hi)
	}
	wg.Wait()

	for _, sh := range shards {
		for p, c := range sh.counts {
			ix.counts[p] += c
		}
		for p, nodes := range sh.pos {
			ix.pos[p] = append(ix.pos[p], nodes...)
		}
	}
	for p, c := range ix.counts {
		if c >= 2 {
			heap.Push(&ix.heap, heapEntry{count: c, p: p})
		}
	}
}

// bump records a new occurrence of p starting at node.
func (ix *pairIndex) bump(p pair, node int) {
	ix.counts[p]++
	ix.pos[p] = append(ix.pos[p], node)
	if ix.counts[p] >= 2 {
		heap.Push(&ix.heap, heapEntry{count: ix.counts[p], p: p})
	}
}

// drop records that an occurrence of p disappeared. Position lists are
// left untouched: their entries may become valid again when the optimizer
// reverts a tentative change, so they are only ever filtered lazily.
func (ix *pairIndex) drop(p pair) {
	if ix.counts[p] <= 0 {
		panic("pairindex: drop below zero")
	}
	ix.counts[p]--
}

// top returns the current maximum-count pair with count >= 2. Stale heap
// entries are discarded on the way; an entry whose count shrank since it
// was pushed is re-pushed at its current count so the pair stays visible.
func (ix *pairIndex) top() (pair, int, bool) {
	for ix.heap.Len() > 0 {
		e := ix.heap[0]
		cur := ix.counts[e.p]
		if cur == e.count {
			return e.p, e.count, true
		}
		heap.Pop(&ix.heap)
		if cur >= 2 && cur < e.count {
			heap.Push(&ix.heap, heapEntry{count: cur, p: e.p})
		}
	}
	return pair{}, 0, false
}

// occurrences returns the currently valid start nodes for p in stream
// order. The stored candidate list may contain stale or duplicate nodes;
// callers must still re-validate each node as they mutate the stream.
func (ix *pairIndex) occurrences(st *stream, p pair) []int {
	cand := ix.pos[p]
	out := make([]int, 0, ix.counts[p])
	for _, i := range cand {
		if !st.alive[i] || st.sym[i] != p.left {
			continue
		}
		j := st.next[i]
		if j == -1 || st.sym[j] != p.right {
			continue
		}
		out = append(out, i)
	}
	sort.Ints(out)
	// The candidate list can hold duplicates when a pair is destroyed and
	// later re-created at the same node.
	dedup := out[:0]
	for k, i := range out {
		if k > 0 && dedup[len(dedup)-1] == i {
			continue
		}
		dedup = append(dedup, i)
	}
	return dedup
}

// repush makes p visible to top() again at its current count. Needed after
// an external count restore, when the entry pushed at that count may have
// been consumed already.
func (ix *pairIndex) repush(p pair) {
	if c := ix.counts[p]; c >= 2 {
		heap.Push(&ix.heap, heapEntry{count: c, p: p})
	}
}

// rebuildHeap repopulates the heap from the exact counts. Used after an
// id compaction, when every key changed.
func (ix *pairIndex) rebuildHeap() {
	ix.heap = ix.heap[:0]
	for p, c := range ix.counts {
		if c >= 2 {
			ix.heap = append(ix.heap, heapEntry{count: c, p: p})
		}
	}
	heap.Init(&ix.heap)
}

// renumber rewrites all pair keys and the heap after token id removed was
// compacted out: every id above it shifts down by one.
func (ix *pairIndex) renumber(removed int) {
	shift := func(id int) int {
		if id > removed {
			return id - 1
		}
		return id
	}
	counts := make(map[pair]int, len(ix.counts))
	pos := make(map[pair][]int, len(ix.pos))
	for p, c := range ix.counts {
		np := pair{shift(p.left), shift(p.right)}
		counts[np] = c
		pos[np] = ix.pos[p]
	}
	ix.counts = counts
	ix.pos = pos
	ix.rebuildHeap()
}
