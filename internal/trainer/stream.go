// Package trainer builds a token set from a training corpus: it symbolizes
// the corpus into a stream of token ids, greedily merges the most frequent
// adjacent pair until the target size is reached, and then runs a
// retire-and-refill optimization pass over the result. The stream and the
// pair index are owned by exactly one trainer for the duration of a run.
package trainer

// stream is the live corpus as a doubly-linked list of symbol nodes over a
// flat arena. Merges collapse two neighbouring nodes into the left one;
// splits re-expand a node in place. Dead nodes stay allocated so that an
// optimizer revert can relink them.
type stream struct {
	sym   []int
	prev  []int
	next  []int
	alive []bool
	head  int
	live  int
}

func newStream(syms []int) *stream {
	n := len(syms)
	st := &stream{
		sym:   syms,
		prev:  make([]int, n),
		next:  make([]int, n),
		alive: make([]bool, n),
		head:  -1,
		live:  n,
	}
	for i := 0; i < n; i++ {
		st.prev[i] = i - 1
		st.next[i] = i + 1
		st.alive[i] = true
	}
	if n > 0 {
		st.next[n-1] = -1
		st.head = 0
	}
	return st
}

// merge collapses node j into its left neighbour i, which takes symbol c.
func (st *stream) merge(i, j, c int) {
	st.sym[i] = c
	st.alive[j] = false
	st.next[i] = st.next[j]
	if st.next[j] != -1 {
		st.prev[st.next[j]] = i
	}
	st.live--
}

// unmerge restores a merge of (a,b) at nodes (i,j). Reverts must run in
// LIFO order for the links to be consistent.
func (st *stream) unmerge(i, j, a, b int) {
	st.sym[i] = a
	st.sym[j] = b
	st.alive[j] = true
	st.next[j] = st.next[i]
	if st.next[i] != -1 {
		st.prev[st.next[i]] = j
	}
	st.next[i] = j
	st.prev[j] = i
	st.live++
}

// split expands node i into (a, b): i keeps a, a fresh node carrying b is
// linked after it. Returns the new node.
func (st *stream) split(i, a, b int) int {
	k := len(st.sym)
	st.sym = append(st.sym, b)
	st.prev = append(st.prev, i)
	st.next = append(st.next, st.next[i])
	st.alive = append(st.alive, true)
	st.sym[i] = a
	if st.next[i] != -1 {
		st.prev[st.next[i]] = k
	}
	st.next[i] = k
	st.live++
	return k
}

// unsplit reverts a split: node k is unlinked again and i takes back c.
func (st *stream) unsplit(i, k, c int) {
	st.sym[i] = c
	st.alive[k] = false
	st.next[i] = st.next[k]
	if st.next[k] != -1 {
		st.prev[st.next[k]] = i
	}
	st.live--
}
