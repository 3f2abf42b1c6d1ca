package trainer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/samcharles93/tokset/internal/fallback"
	"github.com/samcharles93/tokset/internal/textproc"
	"github.com/samcharles93/tokset/internal/tokenset"
)

func TestOptimizeRetiresDeadSeedToken(t *testing.T) {
	t.Parallel()
	// A seed token whose pair never occurs in the corpus is pure dead
	// weight: retiring it frees a slot for a merge that actually helps.
	set := tokenset.New(fallback.Bytes, textproc.Raw)
	set.AddMerge(set.BaseID('q'), set.BaseID('w'))

	tr, err := New(set, []byte("zz zz zz zz"), Config{Target: set.Len() + 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if st := tr.Train(); st != StateConverged {
		t.Fatalf("state = %v, want converged", st)
	}
	liveBefore := tr.Live()
	vocabBefore := set.Len()

	committed := tr.Optimize(0)
	if committed != 1 {
		t.Fatalf("committed %d swaps, want 1", committed)
	}
	if set.Len() != vocabBefore {
		t.Fatalf("vocabulary size changed: %d -> %d", vocabBefore, set.Len())
	}
	if tr.Live() >= liveBefore {
		t.Fatalf("stream did not shrink: %d -> %d", liveBefore, tr.Live())
	}
	for id := 0; id < set.Len(); id++ {
		tok := set.Token(id)
		if tok.Kind == tokenset.KindMerge && tok.Left == set.BaseID('q') && tok.Right == set.BaseID('w') {
			t.Fatalf("dead token %d survived optimization", id)
		}
	}
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := recountTokens(tr); !equalCounts(got, tr.tokenCount) {
		t.Fatalf("token counters drifted: recount %v, tracked %v", got, tr.tokenCount)
	}
}

func TestOptimizeHonorsBudget(t *testing.T) {
	t.Parallel()
	set := tokenset.New(fallback.Bytes, textproc.Raw)
	set.AddMerge(set.BaseID('q'), set.BaseID('w'))
	tr, err := New(set, []byte("zz zz zz zz"), Config{Target: set.Len() + 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr.Train()
	if committed := tr.Optimize(1); committed != 1 {
		t.Fatalf("committed %d swaps in a single-iteration budget, want 1", committed)
	}
}

func TestOptimizeRevertsUnprofitableSwaps(t *testing.T) {
	t.Parallel()
	// With no dead weight, retiring the only token and refilling with the
	// same pair gains nothing, so every attempt must revert cleanly.
	set := tokenset.New(fallback.Bytes, textproc.Raw)
	tr, err := New(set, []byte("zz zz zz zz"), Config{Target: set.Len() + 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr.Train()
	liveBefore := tr.Live()
	mergesBefore := append([]tokenset.MergeStep(nil), set.Merges()...)
	countsBefore := recountTokens(tr)

	if committed := tr.Optimize(0); committed != 0 {
		t.Fatalf("committed %d swaps, want 0", committed)
	}
	if tr.Live() != liveBefore {
		t.Fatalf("live symbols changed: %d -> %d", liveBefore, tr.Live())
	}
	merges := set.Merges()
	if len(merges) != len(mergesBefore) {
		t.Fatalf("merge record changed length: %d -> %d", len(mergesBefore), len(merges))
	}
	for i := range merges {
		if merges[i] != mergesBefore[i] {
			t.Fatalf("merge %d changed: %+v -> %+v", i, mergesBefore[i], merges[i])
		}
	}
	if !equalCounts(countsBefore, tr.tokenCount) {
		t.Fatalf("token counters changed: %v -> %v", countsBefore, tr.tokenCount)
	}
	if diff := pairCountDiff(tr); diff != "" {
		t.Fatalf("pair counts drifted after reverts: %s", diff)
	}
}

func TestOptimizeNeverGrowsStream(t *testing.T) {
	t.Parallel()
	set := tokenset.New(fallback.Bytes, textproc.Raw)
	corpus := []byte(strings.Repeat("the cat sat on the mat. ", 20))
	tr, err := New(set, corpus, Config{Target: set.Len() + 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr.Train()
	liveBefore := tr.Live()

	tr.Optimize(0)
	if tr.Live() > liveBefore {
		t.Fatalf("stream grew: %d -> %d", liveBefore, tr.Live())
	}
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := recountTokens(tr); !equalCounts(got, tr.tokenCount) {
		t.Fatalf("token counters drifted: recount %v, tracked %v", got, tr.tokenCount)
	}
	if diff := pairCountDiff(tr); diff != "" {
		t.Fatalf("pair counts drifted: %s", diff)
	}
}

// pairCountDiff recounts adjacent pairs from the live stream and reports
// the first disagreement with the tracked counts, or "".
func pairCountDiff(tr *Trainer) string {
	got := make(map[pair]int)
	for i := tr.st.head; i != -1; i = tr.st.next[i] {
		j := tr.st.next[i]
		if j != -1 {
			got[pair{tr.st.sym[i], tr.st.sym[j]}]++
		}
	}
	for p, c := range got {
		if tr.ix.counts[p] != c {
			return fmt.Sprintf("pair %v: tracked %d, actual %d", p, tr.ix.counts[p], c)
		}
	}
	for p, c := range tr.ix.counts {
		if c != 0 && got[p] != c {
			return fmt.Sprintf("pair %v: tracked %d, actual %d", p, c, got[p])
		}
	}
	return ""
}
