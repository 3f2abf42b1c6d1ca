package textproc

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestEncodeVectors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"Hello, world!", "\x14hello\x16, world\x16!"},
		{"hello, world!", "hello\x16, world\x16!"},
		{"HELLO, world!", "\x15hello\x16, world\x16!"},
		{"HeLLo, world!", "HeLLo\x16, world\x16!"},
		{"Hello world!", "\x14hello\x16world\x16!"},
		{"Hello , world!", "\x14hello\x16 , world\x16!"},
		{"Hello, world ", "\x14hello\x16, world\x16 "},
		{"Hello, world", "\x14hello\x16, world\x16"},
		{"Hello, World", "\x14hello\x16, \x14world\x16"},
		{"Hello World", "\x14hello\x16\x14world\x16"},
		{"Hello WORLD", "\x14hello\x16\x15world\x16"},
		{"A", "\x14a\x16"},
		{"AB", "\x15ab\x16"},
		{"", ""},
		{"  x  ", "  x\x16  "},
	}
	for _, tc := range cases {
		got, err := Encode([]byte(tc.in))
		if err != nil {
			t.Fatalf("Encode(%q): %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("Encode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	cases := []string{
		"Hello World.\n",
		"Hello, world!",
		"HELLO, world!",
		"HeLLo WoRLD mIXED",
		"a b  c   d\te\n",
		"word",
		"UPPER lower Capitalized",
		"punct.)(!@# 123 A1B2",
		"trailing space ",
		" leading",
		"\n\n\n",
		"",
	}
	for _, in := range cases {
		enc, err := Encode([]byte(in))
		if err != nil {
			t.Fatalf("Encode(%q): %v", in, err)
		}
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)) = %q: %v", in, enc, err)
		}
		if string(dec) != in {
			t.Fatalf("round trip %q: got %q (encoded %q)", in, dec, enc)
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1))
	alphabet := []byte("abcdefgXYZ ABCmno.,!?\n\t0123\x00\xc3\xa9\xff")
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(64)
		in := make([]byte, n)
		for i := range in {
			in[i] = alphabet[rng.Intn(len(alphabet))]
		}
		enc, err := Encode(in)
		if err != nil {
			t.Fatalf("Encode(%q): %v", in, err)
		}
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)) = %q: %v", in, enc, err)
		}
		if !bytes.Equal(dec, in) {
			t.Fatalf("round trip %q: got %q (encoded %q)", in, dec, enc)
		}
	}
}

func TestScenarioHelloWorld(t *testing.T) {
	t.Parallel()
	in := []byte("Hello World.\n")
	enc, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "\x14hello\x16\x14world\x16.\n"
	if string(enc) != want {
		t.Fatalf("Encode = %q, want %q", enc, want)
	}
	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dec, in) {
		t.Fatalf("Decode = %q, want %q", dec, in)
	}
}

func TestEncodeRejectsMarkerBytes(t *testing.T) {
	t.Parallel()
	for _, m := range []byte{MarkerCapitalized, MarkerAllCaps, MarkerEndOfWord} {
		_, err := Encode([]byte{'a', m, 'b'})
		var merr *MalformedInputError
		if !errors.As(err, &merr) {
			t.Fatalf("marker %#x: expected MalformedInputError, got %v", m, err)
		}
		if merr.Offset != 1 {
			t.Fatalf("marker %#x: offset = %d, want 1", m, merr.Offset)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		in     string
		offset int
	}{
		{"two case markers", "\x14\x15hello\x16", 1},
		{"marker before punctuation", "ok \x14, no", 3},
		{"marker before end of word", "\x14\x16", 0},
		{"trailing case marker", "word\x16 \x14", 6},
		{"end of word without word", "\x16oops", 0},
		{"end of word after space", "ab\x16 \x16", 4},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tc.in))
			var merr *MalformedInputError
			if !errors.As(err, &merr) {
				t.Fatalf("expected MalformedInputError, got %v", err)
			}
			if merr.Offset != tc.offset {
				t.Fatalf("offset = %d, want %d (%v)", merr.Offset, tc.offset, err)
			}
		})
	}
}
