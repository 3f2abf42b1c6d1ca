package trainer

import "github.com/samcharles93/tokset/internal/tokenset"

// Optimize retires low-value merge tokens and refills the freed slots with
// fresh merges, keeping each swap only when the stream shrank. A retired
// token must not be referenced as a child by any other token, so the merge
// record stays well formed.
//
// value(token) = occurrences in the stream times (leaf expansion length - 1),
// the number of stream symbols the token currently saves. Each iteration
// tentatively expands the minimum-value candidate, trains one refill merge,
// and commits the swap iff the live symbol count strictly decreased;
// otherwise everything is reverted and the candidate is skipped until the
// next committed swap changes the landscape.
//
// The loop stops at a fixed point or after budget iterations; budget <= 0
// means twice the vocabulary size. Returns the number of committed swaps.
func (t *Trainer) Optimize(budget int) int {
	if budget <= 0 {
		budget = 2 * t.set.Len()
	}
	skipped := make(map[int]bool)
	committed := 0
	for spent := 0; spent < budget; spent++ {
		id := t.pickRetireCandidate(skipped)
		if id == -1 {
			break
		}
		liveBefore := t.st.live
		vocabBefore := t.set.Len()

		t.beginJournal()
		t.expandToken(id)
		if p, _, ok := t.ix.top(); ok {
			produced := t.addMerge(p.left, p.right)
			t.applyMerge(p, produced)
		}

		if t.st.live < liveBefore {
			t.commitJournal()
			t.removeToken(id)
			committed++
			// A committed swap can make previously unprofitable
			// retirements profitable, and it renumbered ids anyway.
			skipped = make(map[int]bool)
			t.log.Debug("retire",
				"token", id,
				"vocab", t.set.Len(),
				"stream", t.st.live,
				"saved", liveBefore-t.st.live)
			continue
		}
		t.revertJournal()
		skipped[id] = true
		if t.set.Len() != vocabBefore || t.st.live != liveBefore {
			panic("trainer: revert did not restore stream and vocabulary")
		}
	}
	t.log.Info("optimization finished",
		"retired", committed,
		"vocab", t.set.Len(),
		"stream", t.st.live)
	return committed
}

// pickRetireCandidate returns the eligible merge token with the lowest
// value, smaller id on ties, or -1 when none remains. Eligible means no
// other token references it as a child and it was not skipped since the
// last committed swap.
func (t *Trainer) pickRetireCandidate(skipped map[int]bool) int {
	n := t.set.Len()
	referenced := make([]bool, n)
	for id := 0; id < n; id++ {
		tok := t.set.Token(id)
		if tok.Kind == tokenset.KindMerge {
			referenced[tok.Left] = true
			referenced[tok.Right] = true
		}
	}
	best, bestVal := -1, 0
	for id := 0; id < n; id++ {
		if t.set.Token(id).Kind != tokenset.KindMerge || referenced[id] || skipped[id] {
			continue
		}
		v := t.tokenCount[id] * (t.set.LeafLen(id) - 1)
		if best == -1 || v < bestVal {
			best, bestVal = id, v
		}
	}
	return best
}

// removeToken compacts a retired id out of the vocabulary, the stream, the
// occurrence counters and the pair index. The caller guarantees the stream
// holds no occurrence of id.
func (t *Trainer) removeToken(id int) {
	if t.tokenCount[id] != 0 {
		panic("trainer: removing a token still present in the stream")
	}
	t.set.RemoveMerge(id)
	for i := range t.st.sym {
		if t.st.sym[i] > id {
			t.st.sym[i]--
		}
	}
	t.tokenCount = append(t.tokenCount[:id], t.tokenCount[id+1:]...)
	t.ix.renumber(id)
}
