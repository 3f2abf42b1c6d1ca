// Package tokenset holds the token vocabulary being trained: a dense arena
// of token records where a merge token refers to its two children by id,
// the append-only merge record, and the immutable model that serialization
// consumes.
package tokenset

import (
	"fmt"

	"github.com/samcharles93/tokset/internal/textproc"
)

// MaxTokens bounds the requested vocabulary size.
const MaxTokens = 65536

// Kind discriminates the token record variants.
type Kind uint8

const (
	// KindBase maps one-to-one to a byte value.
	KindBase Kind = iota
	// KindMarker is a synthetic token owned by the reversible processor.
	KindMarker
	// KindFallback is one digit of the byte fallback alphabet.
	KindFallback
	// KindMerge is the concatenation of two existing tokens.
	KindMerge
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindMarker:
		return "marker"
	case KindFallback:
		return "fallback"
	case KindMerge:
		return "merge"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Marker identifies one of the reversible processor's marker tokens.
type Marker uint8

const (
	MarkerEndOfWord Marker = iota
	MarkerCapitalized
	MarkerAllCaps
	numMarkers
)

func (m Marker) String() string {
	switch m {
	case MarkerEndOfWord:
		return "end_of_word"
	case MarkerCapitalized:
		return "capitalized"
	case MarkerAllCaps:
		return "all_caps"
	}
	return fmt.Sprintf("marker(%d)", uint8(m))
}

// Byte returns the processed-text byte the marker stands for.
func (m Marker) Byte() byte {
	switch m {
	case MarkerEndOfWord:
		return textproc.MarkerEndOfWord
	case MarkerCapitalized:
		return textproc.MarkerCapitalized
	default:
		return textproc.MarkerAllCaps
	}
}

// MarkerForByte maps a processed-text marker byte back to its Marker.
func MarkerForByte(b byte) (Marker, bool) {
	switch b {
	case textproc.MarkerEndOfWord:
		return MarkerEndOfWord, true
	case textproc.MarkerCapitalized:
		return MarkerCapitalized, true
	case textproc.MarkerAllCaps:
		return MarkerAllCaps, true
	}
	return 0, false
}

// Token is one vocabulary entry. Exactly the fields for its Kind are
// meaningful. Merge children are plain id references into the same arena
// and are always strictly smaller than the token's own id.
type Token struct {
	Kind   Kind
	Byte   byte   // KindBase
	Marker Marker // KindMarker
	Digit  uint8  // KindFallback
	Left   int    // KindMerge
	Right  int    // KindMerge
}
