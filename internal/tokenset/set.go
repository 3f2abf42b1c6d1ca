package tokenset

import (
	"fmt"
	"unicode/utf8"

	"github.com/samcharles93/tokset/internal/fallback"
	"github.com/samcharles93/tokset/internal/textproc"
)

// MergeStep is one entry of the append-only merge record. Its position in
// the record is the merge priority.
type MergeStep struct {
	Left     int
	Right    int
	Produced int
}

// Set is the mutable vocabulary under training. Ids are dense; the initial
// tokens (base or fallback digits, plus markers) are fixed by the scheme
// and processing configuration and are never removed.
type Set struct {
	scheme     fallback.Scheme
	processing textproc.Processing

	tokens  []Token
	merges  []MergeStep
	leafLen []int // number of non-merge tokens in the full expansion

	baseID     [256]int
	fallbackID []int
	markerID   [numMarkers]int
}

// New builds the initial vocabulary for a configuration: one base token per
// byte under the bytes scheme, otherwise one token per fallback digit, then
// the three marker tokens when the capswords processing is active.
func New(scheme fallback.Scheme, processing textproc.Processing) *Set {
	s := &Set{scheme: scheme, processing: processing}
	for i := range s.baseID {
		s.baseID[i] = -1
	}
	for i := range s.markerID {
		s.markerID[i] = -1
	}
	if scheme.IsBytes() {
		for b := 0; b < 256; b++ {
			s.baseID[b] = len(s.tokens)
			s.tokens = append(s.tokens, Token{Kind: KindBase, Byte: byte(b)})
			s.leafLen = append(s.leafLen, 1)
		}
	} else {
		s.fallbackID = make([]int, scheme.Alphabet())
		for d := 0; d < scheme.Alphabet(); d++ {
			s.fallbackID[d] = len(s.tokens)
			s.tokens = append(s.tokens, Token{Kind: KindFallback, Digit: uint8(d)})
			s.leafLen = append(s.leafLen, 1)
		}
	}
	if processing == textproc.CapsWords {
		for m := Marker(0); m < numMarkers; m++ {
			s.markerID[m] = len(s.tokens)
			s.tokens = append(s.tokens, Token{Kind: KindMarker, Marker: m})
			s.leafLen = append(s.leafLen, 1)
		}
	}
	return s
}

// MinTokens is the smallest target size valid for this configuration: the
// fixed initial tokens plus room for at least one merge would exceed it, so
// the floor is simply the initial size.
func MinTokens(scheme fallback.Scheme, processing textproc.Processing) int {
	n := scheme.Alphabet()
	if processing == textproc.CapsWords {
		n += int(numMarkers)
	}
	return n
}

func (s *Set) Scheme() fallback.Scheme { return s.scheme }

func (s *Set) Processing() textproc.Processing { return s.processing }

// Len returns the current vocabulary size.
func (s *Set) Len() int { return len(s.tokens) }

// Token returns the record for id. Out-of-range ids are defects.
func (s *Set) Token(id int) Token {
	return s.tokens[id]
}

// Merges returns the merge record. The slice is owned by the set.
func (s *Set) Merges() []MergeStep { return s.merges }

// BaseID returns the id of the base token for byte b, or -1.
func (s *Set) BaseID(b byte) int { return s.baseID[b] }

// FallbackID returns the id of the fallback digit token.
func (s *Set) FallbackID(digit uint8) int { return s.fallbackID[digit] }

// MarkerID returns the id of a marker token, or -1 when the processing
// stage has no markers.
func (s *Set) MarkerID(m Marker) int { return s.markerID[m] }

// AddMerge appends a merge token for the pair (left, right) and records the
// step. Children referencing tokens that do not yet exist are defects.
func (s *Set) AddMerge(left, right int) int {
	id := len(s.tokens)
	if left < 0 || left >= id || right < 0 || right >= id {
		panic(fmt.Sprintf("tokenset: merge children (%d,%d) out of range for id %d", left, right, id))
	}
	s.tokens = append(s.tokens, Token{Kind: KindMerge, Left: left, Right: right})
	s.leafLen = append(s.leafLen, s.leafLen[left]+s.leafLen[right])
	s.merges = append(s.merges, MergeStep{Left: left, Right: right, Produced: id})
	return id
}

// HasDependents reports whether any merge token references id as a child.
func (s *Set) HasDependents(id int) bool {
	for _, t := range s.tokens[id+1:] {
		if t.Kind == KindMerge && (t.Left == id || t.Right == id) {
			return true
		}
	}
	return false
}

// RemoveMerge retires a merge token and compacts the arena: every id above
// the removed one shifts down by one, and all child references and merge
// record entries are renumbered. Removing a non-merge token or a token that
// still has dependents is a defect. Callers must renumber their own
// references the same way.
func (s *Set) RemoveMerge(id int) {
	if s.tokens[id].Kind != KindMerge {
		panic(fmt.Sprintf("tokenset: RemoveMerge(%d) on %s token", id, s.tokens[id].Kind))
	}
	if s.HasDependents(id) {
		panic(fmt.Sprintf("tokenset: RemoveMerge(%d) with live dependents", id))
	}
	s.tokens = append(s.tokens[:id], s.tokens[id+1:]...)
	s.leafLen = append(s.leafLen[:id], s.leafLen[id+1:]...)

	merges := s.merges[:0]
	for _, m := range s.merges {
		if m.Produced == id {
			continue
		}
		if m.Left > id {
			m.Left--
		}
		if m.Right > id {
			m.Right--
		}
		if m.Produced > id {
			m.Produced--
		}
		merges = append(merges, m)
	}
	s.merges = merges

	for i := range s.tokens {
		t := &s.tokens[i]
		if t.Kind != KindMerge {
			continue
		}
		if t.Left > id {
			t.Left--
		}
		if t.Right > id {
			t.Right--
		}
	}
}

// LeafLen returns the number of non-merge tokens in the full expansion of
// id; 1 for any non-merge token.
func (s *Set) LeafLen(id int) int { return s.leafLen[id] }

// Leaves appends the non-merge token ids of the full expansion of id to dst.
func (s *Set) Leaves(dst []int, id int) []int {
	t := s.tokens[id]
	if t.Kind != KindMerge {
		return append(dst, id)
	}
	dst = s.Leaves(dst, t.Left)
	return s.Leaves(dst, t.Right)
}

// Bytes returns the byte expansion of id. ok is false when the expansion is
// not byte-aligned, which happens for merges of a partial fallback group.
func (s *Set) Bytes(id int) ([]byte, bool) {
	leaves := s.Leaves(nil, id)
	out := make([]byte, 0, len(leaves))
	var group []uint8
	for _, leaf := range leaves {
		t := s.tokens[leaf]
		switch t.Kind {
		case KindBase:
			if len(group) > 0 {
				return nil, false
			}
			out = append(out, t.Byte)
		case KindMarker:
			if len(group) > 0 {
				return nil, false
			}
			out = append(out, t.Marker.Byte())
		case KindFallback:
			group = append(group, t.Digit)
			if len(group) == s.scheme.Arity() {
				b, err := s.scheme.DecodeByte(group)
				if err != nil {
					panic(fmt.Sprintf("tokenset: invalid fallback group for token %d: %v", id, err))
				}
				out = append(out, b)
				group = group[:0]
			}
		}
	}
	if len(group) > 0 {
		return nil, false
	}
	return out, true
}

// Text renders a token for humans: its byte expansion when printable, the
// digit expansion otherwise.
func (s *Set) Text(id int) string {
	if b, ok := s.Bytes(id); ok {
		if utf8.Valid(b) {
			return fmt.Sprintf("%q", b)
		}
		return fmt.Sprintf("%#x", b)
	}
	return fmt.Sprintf("digits%v", s.Leaves(nil, id))
}

// Validate checks the arena invariants: merge children precede their token
// and the merge record matches the arena. A violation is returned as an
// error so callers loading untrusted artifacts can reject them; the
// training path panics instead, since there it is a defect.
func (s *Set) Validate() error {
	nmerge := 0
	for id, t := range s.tokens {
		if t.Kind != KindMerge {
			continue
		}
		nmerge++
		if t.Left < 0 || t.Left >= id || t.Right < 0 || t.Right >= id {
			return fmt.Errorf("merge token %d references (%d,%d) outside [0,%d)", id, t.Left, t.Right, id)
		}
	}
	if nmerge != len(s.merges) {
		return fmt.Errorf("merge record has %d steps, arena has %d merge tokens", len(s.merges), nmerge)
	}
	for i, m := range s.merges {
		t := s.tokens[m.Produced]
		if t.Kind != KindMerge || t.Left != m.Left || t.Right != m.Right {
			return fmt.Errorf("merge step %d (%d,%d)->%d does not match arena", i, m.Left, m.Right, m.Produced)
		}
	}
	return nil
}
