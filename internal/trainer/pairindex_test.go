package trainer

import (
	"math/rand"
	"testing"
)

func TestBuildParallelMatchesSerial(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	syms := make([]int, 10000)
	for i := range syms {
		syms[i] = rng.Intn(8)
	}

	serial := newPairIndex()
	serial.build(syms, 1)
	parallel := newPairIndex()
	parallel.build(syms, 7)

	if len(serial.counts) != len(parallel.counts) {
		t.Fatalf("parallel build has %d pairs, serial has %d", len(parallel.counts), len(serial.counts))
	}
	for p, c := range serial.counts {
		if parallel.counts[p] != c {
			t.Fatalf("pair %v: parallel count %d, serial %d", p, parallel.counts[p], c)
		}
	}
}

func TestTopTieBreak(t *testing.T) {
	t.Parallel()
	ix := newPairIndex()
	// Two pairs with equal count: the smaller left id must win, then the
	// smaller right id.
	ix.build([]int{5, 1, 9, 5, 1, 9, 2, 7, 2, 7, 2, 8, 2, 8}, 1)

	p, c, ok := ix.top()
	if !ok || c != 2 {
		t.Fatalf("top = %v %d %v, want a count-2 pair", p, c, ok)
	}
	if p.left != 1 {
		t.Fatalf("top pair %v, want left id 1 to win the tie", p)
	}
}

func TestTopSkipsStaleEntries(t *testing.T) {
	t.Parallel()
	syms := []int{1, 2, 9, 1, 2, 8, 1, 2, 7, 5, 6, 0, 5, 6}
	ix := newPairIndex()
	ix.build(syms, 1)

	// Knock (1,2) down below (5,6) without going through a merge.
	ix.drop(pair{1, 2})
	ix.drop(pair{1, 2})

	p, c, ok := ix.top()
	if !ok || p != (pair{5, 6}) || c != 2 {
		t.Fatalf("top = %v %d %v, want (5,6) count 2", p, c, ok)
	}
}

func TestOccurrencesValidatesAgainstStream(t *testing.T) {
	t.Parallel()
	syms := []int{1, 2, 9, 1, 2, 9, 1, 2}
	st := newStream(append([]int(nil), syms...))
	ix := newPairIndex()
	ix.build(syms, 1)

	occ := ix.occurrences(st, pair{1, 2})
	if len(occ) != 3 || occ[0] != 0 || occ[1] != 3 || occ[2] != 6 {
		t.Fatalf("occurrences = %v, want [0 3 6]", occ)
	}

	// Kill the middle occurrence; it must drop out without touching counts.
	st.merge(3, 4, 100)
	occ = ix.occurrences(st, pair{1, 2})
	if len(occ) != 2 || occ[0] != 0 || occ[1] != 6 {
		t.Fatalf("occurrences after merge = %v, want [0 6]", occ)
	}
}

func TestRenumberShiftsIds(t *testing.T) {
	t.Parallel()
	ix := newPairIndex()
	ix.build([]int{3, 7, 3, 7, 5, 5, 5}, 1)

	ix.renumber(4)
	if ix.counts[pair{3, 6}] != 2 {
		t.Fatalf("pair (3,7) should have become (3,6): counts=%v", ix.counts)
	}
	if ix.counts[pair{4, 4}] != 2 {
		t.Fatalf("pair (5,5) should have become (4,4): counts=%v", ix.counts)
	}
	p, c, ok := ix.top()
	if !ok || c != 2 || p.left != 3 {
		t.Fatalf("top after renumber = %v %d %v, want (3,6)", p, c, ok)
	}
}
