package trainer

import (
	"fmt"
	"log/slog"

	"github.com/samcharles93/tokset/internal/logger"
	"github.com/samcharles93/tokset/internal/tokenset"
)

// State is the trainer lifecycle. A trainer starts Growing and ends in
// exactly one of the terminal states.
type State int

const (
	// StateGrowing means the vocabulary is still below target and merge
	// candidates remain.
	StateGrowing State = iota
	// StateConverged means the vocabulary reached the target size.
	StateConverged
	// StateExhausted means no adjacent pair occurs twice anymore, so the
	// target is unreachable on this corpus. The achieved size stands.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateGrowing:
		return "growing"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config carries the tunables for one training run.
type Config struct {
	// Target is the desired vocabulary size, inclusive of the fixed
	// initial tokens.
	Target int
	// Workers bounds the shard workers for the initial pair count.
	// Zero means GOMAXPROCS.
	Workers int
	// Log receives progress events. Nil disables logging.
	Log logger.Logger
}

// Trainer owns the symbol stream and the pair index for one run. It is not
// safe for concurrent use; all parallelism is internal to the initial count.
type Trainer struct {
	set        *tokenset.Set
	st         *stream
	ix         *pairIndex
	tokenCount []int
	target     int
	state      State
	log        logger.Logger
	scanned    uint64

	jr *journal
}

// New symbolizes the corpus against set and prepares the pair index. When
// set already carries merges (a seeded run) the merge record is replayed
// over the stream first, so training continues where the seed left off.
func New(set *tokenset.Set, data []byte, cfg Config) (*Trainer, error) {
	if cfg.Target < set.Len() {
		return nil, fmt.Errorf("target %d below current vocabulary size %d", cfg.Target, set.Len())
	}
	if cfg.Target > tokenset.MaxTokens {
		return nil, fmt.Errorf("target %d above the %d token ceiling", cfg.Target, tokenset.MaxTokens)
	}
	syms, err := Symbolize(set, data)
	if err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = logger.New(slog.DiscardHandler)
	}
	t := &Trainer{
		set:        set,
		st:         newStream(syms),
		ix:         newPairIndex(),
		tokenCount: make([]int, set.Len()),
		target:     cfg.Target,
		state:      StateGrowing,
		log:        log,
		scanned:    uint64(len(data)),
	}
	t.ix.build(syms, cfg.Workers)
	for _, s := range syms {
		t.tokenCount[s]++
	}
	for _, m := range set.Merges() {
		t.applyMerge(pair{m.Left, m.Right}, m.Produced)
	}
	return t, nil
}

// Set returns the vocabulary under training.
func (t *Trainer) Set() *tokenset.Set { return t.set }

// State returns the current lifecycle state.
func (t *Trainer) State() State { return t.state }

// Live returns the current number of symbols in the stream.
func (t *Trainer) Live() int { return t.st.live }

// Stats summarizes the run so far.
func (t *Trainer) Stats() tokenset.Stats {
	s := tokenset.Stats{
		ScannedBytes: t.scanned,
		TotalTokens:  uint64(t.st.live),
		MergeSteps:   len(t.set.Merges()),
	}
	if t.st.live > 0 {
		s.BytesPerToken = float64(t.scanned) / float64(t.st.live)
	}
	return s
}

// Step performs one merge: the most frequent adjacent pair becomes a new
// token and every occurrence in the stream is rewritten. It reports false
// once a terminal state is reached.
func (t *Trainer) Step() bool {
	if t.state != StateGrowing {
		return false
	}
	if t.set.Len() >= t.target {
		t.state = StateConverged
		return false
	}
	p, count, ok := t.ix.top()
	if !ok {
		t.state = StateExhausted
		return false
	}
	produced := t.addMerge(p.left, p.right)
	t.applyMerge(p, produced)
	t.log.Debug("merge",
		"token", produced,
		"left", p.left,
		"right", p.right,
		"count", count,
		"vocab", t.set.Len(),
		"stream", t.st.live)
	return true
}

// Train runs Step until a terminal state and returns it.
func (t *Trainer) Train() State {
	for t.Step() {
	}
	t.log.Info("training finished",
		"state", t.state.String(),
		"vocab", t.set.Len(),
		"target", t.target,
		"stream", t.st.live)
	return t.state
}

// addMerge grows the vocabulary and the per-token occurrence counters
// together.
func (t *Trainer) addMerge(left, right int) int {
	id := t.set.AddMerge(left, right)
	t.tokenCount = append(t.tokenCount, 0)
	if t.jr != nil {
		t.jr.addedMerge = true
	}
	return id
}

// applyMerge rewrites every live occurrence of p into the token produced,
// updating neighbour pair counts incrementally. Occurrences are processed
// in stream order and re-validated as the stream mutates, which resolves
// overlapping occurrences of self-pairs like (a,a) in "aaa" left to right.
func (t *Trainer) applyMerge(p pair, produced int) {
	for _, i := range t.ix.occurrences(t.st, p) {
		if !t.st.alive[i] || t.st.sym[i] != p.left {
			continue
		}
		j := t.st.next[i]
		if j == -1 || t.st.sym[j] != p.right {
			continue
		}
		pi := t.st.prev[i]
		nj := t.st.next[j]

		t.drop(p)
		if pi != -1 {
			t.drop(pair{t.st.sym[pi], p.left})
		}
		if nj != -1 {
			t.drop(pair{p.right, t.st.sym[nj]})
		}
		t.mergeNodes(i, j, produced)
		if pi != -1 {
			t.bump(pair{t.st.sym[pi], produced}, pi)
		}
		if nj != -1 {
			t.bump(pair{produced, t.st.sym[nj]}, i)
		}
		t.countToken(p.left, -1)
		t.countToken(p.right, -1)
		t.countToken(produced, +1)
	}
}

// expandToken rewrites every live occurrence of a merge token id back into
// its children, updating neighbour pair counts. The inverse of applyMerge.
func (t *Trainer) expandToken(id int) {
	tok := t.set.Token(id)
	if tok.Kind != tokenset.KindMerge {
		panic(fmt.Sprintf("trainer: expandToken(%d) on %s token", id, tok.Kind))
	}
	var nodes []int
	for i := t.st.head; i != -1; i = t.st.next[i] {
		if t.st.sym[i] == id {
			nodes = append(nodes, i)
		}
	}
	for _, i := range nodes {
		pi := t.st.prev[i]
		ni := t.st.next[i]

		if pi != -1 {
			t.drop(pair{t.st.sym[pi], id})
		}
		if ni != -1 {
			t.drop(pair{id, t.st.sym[ni]})
		}
		k := t.splitNode(i, tok.Left, tok.Right)
		t.bump(pair{tok.Left, tok.Right}, i)
		if pi != -1 {
			t.bump(pair{t.st.sym[pi], tok.Left}, pi)
		}
		if ni != -1 {
			t.bump(pair{tok.Right, t.st.sym[ni]}, k)
		}
		t.countToken(id, -1)
		t.countToken(tok.Left, +1)
		t.countToken(tok.Right, +1)
	}
}

// bump, drop, countToken and the node operations funnel every mutation
// through the journal when one is open, so a tentative phase can be
// reverted exactly.

func (t *Trainer) bump(p pair, node int) {
	t.ix.bump(p, node)
	if t.jr != nil {
		t.jr.pairDelta[p]++
	}
}

func (t *Trainer) drop(p pair) {
	t.ix.drop(p)
	if t.jr != nil {
		t.jr.pairDelta[p]--
	}
}

func (t *Trainer) countToken(id, delta int) {
	t.tokenCount[id] += delta
	if t.jr != nil {
		t.jr.tokenDelta[id] += delta
	}
}

func (t *Trainer) mergeNodes(i, j, c int) {
	if t.jr != nil {
		t.jr.ops = append(t.jr.ops, streamOp{kind: opMerge, i: i, j: j, a: t.st.sym[i], b: t.st.sym[j]})
	}
	t.st.merge(i, j, c)
}

func (t *Trainer) splitNode(i, a, b int) int {
	c := t.st.sym[i]
	k := t.st.split(i, a, b)
	if t.jr != nil {
		t.jr.ops = append(t.jr.ops, streamOp{kind: opSplit, i: i, j: k, c: c})
	}
	return k
}

type opKind int

const (
	opMerge opKind = iota
	opSplit
)

type streamOp struct {
	kind opKind
	i, j int
	a, b int
	c    int
}

// journal records one tentative phase: the stream operations in order, the
// net pair count and token count deltas, and whether a merge token was
// appended to the vocabulary.
type journal struct {
	ops        []streamOp
	pairDelta  map[pair]int
	tokenDelta map[int]int
	addedMerge bool
}

func (t *Trainer) beginJournal() {
	if t.jr != nil {
		panic("trainer: nested journal")
	}
	t.jr = &journal{
		pairDelta:  make(map[pair]int),
		tokenDelta: make(map[int]int),
	}
}

// commitJournal keeps the tentative phase and discards the revert log.
func (t *Trainer) commitJournal() {
	t.jr = nil
}

// revertJournal restores the stream, the pair counts and the token counts
// to the state at beginJournal. Stream operations are undone in LIFO order;
// pairs whose counts changed are re-pushed so a later top() still sees
// them, since their heap entries may have been consumed meanwhile.
func (t *Trainer) revertJournal() {
	jr := t.jr
	t.jr = nil
	for k := len(jr.ops) - 1; k >= 0; k-- {
		op := jr.ops[k]
		switch op.kind {
		case opMerge:
			t.st.unmerge(op.i, op.j, op.a, op.b)
		case opSplit:
			t.st.unsplit(op.i, op.j, op.c)
		}
	}
	for p, d := range jr.pairDelta {
		t.ix.counts[p] -= d
		t.ix.repush(p)
	}
	for id, d := range jr.tokenDelta {
		t.tokenCount[id] -= d
	}
	if jr.addedMerge {
		last := t.set.Len() - 1
		t.set.RemoveMerge(last)
		t.tokenCount = t.tokenCount[:last]
	}
}
