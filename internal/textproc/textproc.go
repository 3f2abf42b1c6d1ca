// Package textproc implements the reversible case/word-boundary transform
// applied to text before tokenization. The forward transform lower-cases
// capitalized and all-caps words behind a one-byte marker, terminates every
// word with an end-of-word marker, and drops the single space between two
// words. The inverse transform reconstructs the original bytes exactly.
package textproc

import "fmt"

// Marker bytes emitted by the forward transform. They occupy C0 control
// slots that never appear in text input; Encode rejects input containing
// them so the transform stays invertible.
const (
	MarkerCapitalized byte = 0x14
	MarkerAllCaps     byte = 0x15
	MarkerEndOfWord   byte = 0x16
)

// Processing identifies the pre-tokenization stage of a token set.
type Processing uint8

const (
	// Raw leaves the training bytes untouched.
	Raw Processing = iota
	// CapsWords applies the reversible case/word-boundary transform.
	CapsWords
)

// ParseProcessing maps an artifact or flag name to a Processing value.
func ParseProcessing(name string) (Processing, error) {
	switch name {
	case "raw":
		return Raw, nil
	case "capswords":
		return CapsWords, nil
	}
	return Raw, fmt.Errorf("unknown processing %q (have raw, capswords)", name)
}

func (p Processing) String() string {
	if p == CapsWords {
		return "capswords"
	}
	return "raw"
}

// MalformedInputError reports invalid input with the byte offset of the
// first offending byte.
type MalformedInputError struct {
	Offset int
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input at offset %d: %s", e.Offset, e.Reason)
}

// A word is a maximal run of letter bytes. Only ASCII letters have an
// upper/lower counterpart at the byte level; multi-byte UTF-8 letters pass
// through as non-letters, which keeps the transform total.
func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

func toLower(b byte) byte {
	if isUpper(b) {
		return b + ('a' - 'A')
	}
	return b
}

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

type encState uint8

const (
	stNonWord encState = iota
	stWord
	stSpaceAfterWord
)

// Encode applies the forward transform. It fails if src contains a marker
// byte, since such input could not be decoded back unambiguously.
func Encode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src)+len(src)/4)
	state := stNonWord
	var word []byte

	for i, b := range src {
		if b == MarkerCapitalized || b == MarkerAllCaps || b == MarkerEndOfWord {
			return nil, &MalformedInputError{Offset: i, Reason: fmt.Sprintf("input contains reserved marker byte %#x", b)}
		}
		switch state {
		case stNonWord:
			if isLetter(b) {
				word = append(word, b)
				state = stWord
			} else {
				out = append(out, b)
			}
		case stWord:
			switch {
			case isLetter(b):
				word = append(word, b)
			case b == ' ':
				out = appendWord(out, word)
				word = word[:0]
				state = stSpaceAfterWord
			default:
				out = appendWord(out, word)
				word = word[:0]
				out = append(out, b)
				state = stNonWord
			}
		case stSpaceAfterWord:
			if isLetter(b) {
				// The single inter-word space is implied by the
				// end-of-word marker; drop it.
				word = append(word, b)
				state = stWord
			} else {
				out = append(out, ' ', b)
				state = stNonWord
			}
		}
	}

	switch state {
	case stWord:
		out = appendWord(out, word)
	case stSpaceAfterWord:
		out = append(out, ' ')
	}
	return out, nil
}

// appendWord classifies one word and emits it with its case marker.
// A single uppercase letter counts as capitalized; capitalized and all-caps
// coincide at length one and the capitalized reading wins.
func appendWord(out, word []byte) []byte {
	first := word[0]
	rest := word[1:]

	switch {
	case isUpper(first) && allLower(rest):
		out = append(out, MarkerCapitalized)
		out = append(out, toLower(first))
		out = append(out, rest...)
	case isUpper(first) && len(rest) > 0 && allUpper(rest):
		out = append(out, MarkerAllCaps)
		for _, b := range word {
			out = append(out, toLower(b))
		}
	default:
		// Mixed case: emitted verbatim, no marker.
		out = append(out, word...)
	}
	return append(out, MarkerEndOfWord)
}

func allLower(word []byte) bool {
	for _, b := range word {
		if isUpper(b) {
			return false
		}
	}
	return true
}

func allUpper(word []byte) bool {
	for _, b := range word {
		if !isUpper(b) {
			return false
		}
	}
	return true
}

type caseMode uint8

const (
	modeNone caseMode = iota
	modeCapitalized
	modeAllCaps
)

// Decode inverts Encode. It is strict: an unmatched or misplaced marker is
// reported with its offset rather than silently repaired.
func Decode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))
	mode := modeNone
	modeUsed := false // mode has upper-cased at least one letter
	modeOffset := 0
	inWord := false

	for i := 0; i < len(src); i++ {
		b := src[i]
		switch {
		case b == MarkerCapitalized || b == MarkerAllCaps:
			if mode != modeNone {
				return nil, &MalformedInputError{Offset: i, Reason: "two case markers before a letter"}
			}
			if b == MarkerCapitalized {
				mode = modeCapitalized
			} else {
				mode = modeAllCaps
			}
			modeUsed = false
			modeOffset = i
			inWord = false
		case b == MarkerEndOfWord:
			if mode != modeNone && !modeUsed {
				return nil, &MalformedInputError{Offset: modeOffset, Reason: "case marker not followed by a letter"}
			}
			if !inWord {
				return nil, &MalformedInputError{Offset: i, Reason: "end-of-word marker without a preceding word"}
			}
			mode = modeNone
			modeUsed = false
			inWord = false
			// The marker stands in for the single space that separated
			// this word from an immediately following one.
			if i+1 < len(src) && startsWord(src[i+1]) {
				out = append(out, ' ')
			}
		case isLetter(b):
			switch mode {
			case modeCapitalized:
				out = append(out, toUpper(b))
				mode = modeNone
				modeUsed = false
			case modeAllCaps:
				out = append(out, toUpper(b))
				modeUsed = true
			default:
				out = append(out, b)
			}
			inWord = true
		default:
			if mode != modeNone && !modeUsed {
				return nil, &MalformedInputError{Offset: modeOffset, Reason: "case marker not followed by a letter"}
			}
			mode = modeNone
			modeUsed = false
			inWord = false
			out = append(out, b)
		}
	}

	if mode != modeNone && !modeUsed {
		return nil, &MalformedInputError{Offset: modeOffset, Reason: "trailing case marker"}
	}
	return out, nil
}

// startsWord reports whether b begins a new word in encoded form: either a
// letter or a case marker announcing one.
func startsWord(b byte) bool {
	return isLetter(b) || b == MarkerCapitalized || b == MarkerAllCaps
}
