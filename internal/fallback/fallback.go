// Package fallback implements the byte fallback codecs. A scheme maps any
// byte value to a fixed-length sequence of digits drawn from a small
// alphabet, so a token set too small to give every byte its own token can
// still represent arbitrary input. All schemes are total bijections.
package fallback

import (
	"fmt"
	"strings"
)

// Scheme describes one byte fallback codec. The zero value is not valid;
// use ByName or one of the package variables.
type Scheme struct {
	name     string
	bits     uint // bits per digit, 0 for the bytes scheme
	arity    int  // digits per byte
	alphabet int  // number of distinct digits
}

var (
	// Bits1 encodes each byte as 8 binary digits, most significant first.
	Bits1 = Scheme{name: "bits1", bits: 1, arity: 8, alphabet: 2}
	// Bits2 encodes each byte as 4 base-4 digits, most significant first.
	Bits2 = Scheme{name: "bits2", bits: 2, arity: 4, alphabet: 4}
	// Bits4 encodes each byte as 2 hex nibbles, high nibble first.
	Bits4 = Scheme{name: "bits4", bits: 4, arity: 2, alphabet: 16}
	// Bytes gives every byte its own token; the codec is the identity.
	Bytes = Scheme{name: "bytes", bits: 8, arity: 1, alphabet: 256}
)

var schemes = []Scheme{Bits1, Bits2, Bits4, Bytes}

// ByName looks up a scheme by its artifact name.
func ByName(name string) (Scheme, error) {
	for _, s := range schemes {
		if s.name == name {
			return s, nil
		}
	}
	return Scheme{}, fmt.Errorf("unknown fallback scheme %q (have %s)", name, strings.Join(Names(), ", "))
}

// Names returns the names of all supported schemes.
func Names() []string {
	out := make([]string, len(schemes))
	for i, s := range schemes {
		out[i] = s.name
	}
	return out
}

func (s Scheme) Name() string { return s.name }

// Arity is the number of digits every byte expands to.
func (s Scheme) Arity() int { return s.arity }

// Alphabet is the number of distinct digit values.
func (s Scheme) Alphabet() int { return s.alphabet }

// IsBytes reports whether the scheme maps every byte to a dedicated token
// instead of synthetic digits.
func (s Scheme) IsBytes() bool { return s.name == Bytes.name }

// AppendDigits appends the digit expansion of b to dst, most significant
// digit first, and returns the extended slice.
func (s Scheme) AppendDigits(dst []uint8, b byte) []uint8 {
	mask := byte(1)<<s.bits - 1
	for i := s.arity - 1; i >= 0; i-- {
		dst = append(dst, (b>>(uint(i)*s.bits))&mask)
	}
	return dst
}

// EncodeByte returns the digit expansion of b.
func (s Scheme) EncodeByte(b byte) []uint8 {
	return s.AppendDigits(make([]uint8, 0, s.arity), b)
}

// DecodeByte reconstructs one byte from exactly Arity digits. It fails on a
// short or long group and on digits outside the alphabet.
func (s Scheme) DecodeByte(digits []uint8) (byte, error) {
	if len(digits) != s.arity {
		return 0, fmt.Errorf("fallback %s: want %d digits, got %d", s.name, s.arity, len(digits))
	}
	var b byte
	for _, d := range digits {
		if int(d) >= s.alphabet {
			return 0, fmt.Errorf("fallback %s: digit %d outside alphabet of %d", s.name, d, s.alphabet)
		}
		b = b<<s.bits | d
	}
	return b, nil
}
