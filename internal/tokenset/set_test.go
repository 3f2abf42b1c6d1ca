package tokenset

import (
	"bytes"
	"testing"

	"github.com/samcharles93/tokset/internal/fallback"
	"github.com/samcharles93/tokset/internal/textproc"
)

func TestNewInitialTokens(t *testing.T) {
	t.Parallel()
	t.Run("bits4 raw", func(t *testing.T) {
		t.Parallel()
		s := New(fallback.Bits4, textproc.Raw)
		if s.Len() != 16 {
			t.Fatalf("Len = %d, want 16", s.Len())
		}
		for d := uint8(0); d < 16; d++ {
			id := s.FallbackID(d)
			tok := s.Token(id)
			if tok.Kind != KindFallback || tok.Digit != d {
				t.Fatalf("token %d = %+v, want fallback digit %d", id, tok, d)
			}
		}
		if s.BaseID('a') != -1 {
			t.Fatal("bits4 set should have no base tokens")
		}
		if s.MarkerID(MarkerEndOfWord) != -1 {
			t.Fatal("raw set should have no marker tokens")
		}
	})

	t.Run("bits4 capswords", func(t *testing.T) {
		t.Parallel()
		s := New(fallback.Bits4, textproc.CapsWords)
		if s.Len() != 19 {
			t.Fatalf("Len = %d, want 19", s.Len())
		}
		for m := Marker(0); m < numMarkers; m++ {
			id := s.MarkerID(m)
			if id < 0 || s.Token(id).Kind != KindMarker || s.Token(id).Marker != m {
				t.Fatalf("marker %s: bad token id %d", m, id)
			}
		}
	})

	t.Run("bytes", func(t *testing.T) {
		t.Parallel()
		s := New(fallback.Bytes, textproc.Raw)
		if s.Len() != 256 {
			t.Fatalf("Len = %d, want 256", s.Len())
		}
		for b := 0; b < 256; b++ {
			if s.BaseID(byte(b)) != b {
				t.Fatalf("BaseID(%#x) = %d, want %d", b, s.BaseID(byte(b)), b)
			}
		}
	})
}

func TestAddMergeAndBytes(t *testing.T) {
	t.Parallel()
	s := New(fallback.Bits4, textproc.Raw)
	// 'a' = 0x61: nibbles 6, 1
	a := s.AddMerge(s.FallbackID(6), s.FallbackID(1))
	aa := s.AddMerge(a, a)

	if got := s.LeafLen(aa); got != 4 {
		t.Fatalf("LeafLen(aa) = %d, want 4", got)
	}
	b, ok := s.Bytes(aa)
	if !ok || !bytes.Equal(b, []byte("aa")) {
		t.Fatalf("Bytes(aa) = %q ok=%v, want \"aa\"", b, ok)
	}

	half := s.AddMerge(s.FallbackID(1), s.FallbackID(6))
	odd := s.AddMerge(half, s.FallbackID(2))
	if _, ok := s.Bytes(odd); ok {
		t.Fatal("expected non-byte-aligned expansion to report ok=false")
	}

	if len(s.Merges()) != 4 {
		t.Fatalf("merge record has %d steps, want 4", len(s.Merges()))
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRemoveMergeCompacts(t *testing.T) {
	t.Parallel()
	s := New(fallback.Bits4, textproc.Raw)
	a := s.AddMerge(s.FallbackID(6), s.FallbackID(1)) // 16
	b := s.AddMerge(s.FallbackID(6), s.FallbackID(2)) // 17
	c := s.AddMerge(a, a)                             // 18

	if !s.HasDependents(a) {
		t.Fatal("a should have dependents")
	}
	if s.HasDependents(b) {
		t.Fatal("b should have no dependents")
	}

	s.RemoveMerge(b)
	if s.Len() != 18 {
		t.Fatalf("Len = %d, want 18", s.Len())
	}
	// c shifted down by one and still refers to a.
	moved := s.Token(c - 1)
	if moved.Kind != KindMerge || moved.Left != a || moved.Right != a {
		t.Fatalf("compacted token = %+v, want merge(%d,%d)", moved, a, a)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate after compaction: %v", err)
	}
	got, ok := s.Bytes(c - 1)
	if !ok || string(got) != "aa" {
		t.Fatalf("Bytes after compaction = %q ok=%v, want \"aa\"", got, ok)
	}
}

func TestRemoveMergePanics(t *testing.T) {
	t.Parallel()
	s := New(fallback.Bits4, textproc.Raw)
	a := s.AddMerge(s.FallbackID(6), s.FallbackID(1))
	s.AddMerge(a, a)

	mustPanic(t, func() { s.RemoveMerge(a) })              // has dependents
	mustPanic(t, func() { s.RemoveMerge(s.FallbackID(0)) }) // not a merge
}

func TestAddMergePanicsOnBadChildren(t *testing.T) {
	t.Parallel()
	s := New(fallback.Bits4, textproc.Raw)
	mustPanic(t, func() { s.AddMerge(0, s.Len()) })
	mustPanic(t, func() { s.AddMerge(-1, 0) })
}

func mustPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	f()
}
