package trainer

import (
	"fmt"

	"github.com/samcharles93/tokset/internal/textproc"
	"github.com/samcharles93/tokset/internal/tokenset"
)

// Symbolize converts corpus bytes into the initial token-id sequence: base
// id where one exists, marker id for processed marker bytes under the
// capswords stage, fallback digit expansion otherwise.
//
// Training data must use the single-byte line terminator; a carriage
// return anywhere in the corpus is an input error, never normalized.
func Symbolize(set *tokenset.Set, data []byte) ([]int, error) {
	scheme := set.Scheme()
	out := make([]int, 0, len(data)*scheme.Arity())
	var digits []uint8
	for i, b := range data {
		if b == '\r' {
			return nil, fmt.Errorf("carriage return at offset %d: training data must use single-byte line terminators", i)
		}
		if set.Processing() == textproc.CapsWords {
			if m, ok := tokenset.MarkerForByte(b); ok {
				out = append(out, set.MarkerID(m))
				continue
			}
		}
		if id := set.BaseID(b); id >= 0 {
			out = append(out, id)
			continue
		}
		digits = scheme.AppendDigits(digits[:0], b)
		for _, d := range digits {
			id := set.FallbackID(d)
			if id < 0 {
				return nil, fmt.Errorf("byte %#x at offset %d has no representation under scheme %s", b, i, scheme.Name())
			}
			out = append(out, id)
		}
	}
	return out, nil
}
