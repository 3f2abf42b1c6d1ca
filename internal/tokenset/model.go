package tokenset

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/samcharles93/tokset/internal/fallback"
	"github.com/samcharles93/tokset/internal/textproc"
)

// Stats summarizes one training run over the corpus the set was built on.
type Stats struct {
	ScannedBytes  uint64  `json:"scanned_bytes"`
	TotalTokens   uint64  `json:"total_tokens"`
	BytesPerToken float64 `json:"bytes_per_token"`
	MergeSteps    int     `json:"merge_steps"`
}

// Model is the immutable terminal state of a run: the ordered vocabulary
// plus the codec and processing identities needed to rebuild both encoder
// and decoder. It is the sole input to serialization.
type Model struct {
	id       string
	created  time.Time
	set      *Set
	achieved int
	stats    Stats
	warning  string
}

// Freeze snapshots the set into a model. The set must not be mutated
// afterwards; Freeze deep-copies what it needs.
func Freeze(s *Set, stats Stats, warning string) *Model {
	cp := New(s.scheme, s.processing)
	for _, m := range s.merges {
		cp.AddMerge(m.Left, m.Right)
	}
	return &Model{
		id:       uuid.NewString(),
		created:  time.Now().UTC(),
		set:      cp,
		achieved: cp.Len(),
		stats:    stats,
		warning:  warning,
	}
}

func (m *Model) ID() string { return m.id }

func (m *Model) Len() int { return m.set.Len() }

func (m *Model) Scheme() fallback.Scheme { return m.set.scheme }

func (m *Model) Processing() textproc.Processing { return m.set.processing }

func (m *Model) Stats() Stats { return m.stats }

func (m *Model) Warning() string { return m.warning }

// Set returns a mutable copy of the model's vocabulary, for runs seeded
// from a previous artifact.
func (m *Model) Set() *Set {
	cp := New(m.set.scheme, m.set.processing)
	for _, step := range m.set.merges {
		cp.AddMerge(step.Left, step.Right)
	}
	return cp
}

// Name is the canonical artifact stem, e.g. tokens512_capswords_bits4.
func (m *Model) Name() string {
	return fmt.Sprintf("tokens%d_%s_%s", m.set.Len(), m.set.processing, m.set.scheme.Name())
}

// Token, Text and LeafLen expose the frozen vocabulary for inspection.
func (m *Model) Token(id int) Token { return m.set.Token(id) }
func (m *Model) Text(id int) string { return m.set.Text(id) }
func (m *Model) LeafLen(id int) int { return m.set.LeafLen(id) }
func (m *Model) Bytes(id int) ([]byte, bool) {
	return m.set.Bytes(id)
}

type fallbackJSON struct {
	Scheme   string `json:"scheme"`
	Arity    int    `json:"arity"`
	Alphabet int    `json:"alphabet"`
}

type tokenJSON struct {
	Kind   string `json:"kind"`
	Byte   *int   `json:"byte,omitempty"`
	Marker string `json:"marker,omitempty"`
	Digit  *int   `json:"digit,omitempty"`
	Left   *int   `json:"left,omitempty"`
	Right  *int   `json:"right,omitempty"`
	Text   string `json:"text,omitempty"`
}

type artifactJSON struct {
	ID         string       `json:"id,omitempty"`
	CreatedAt  string       `json:"created_at,omitempty"`
	Type       string       `json:"type"`
	Processing string       `json:"processing"`
	Fallback   fallbackJSON `json:"fallback"`
	NTokens    int          `json:"ntokens"`
	Tokens     []tokenJSON  `json:"tokens"`
	Stats      *Stats       `json:"stats,omitempty"`
	Warning    string       `json:"warning,omitempty"`
}

func intp(v int) *int { return &v }

// MarshalJSON renders the artifact format.
func (m *Model) MarshalJSON() ([]byte, error) {
	art := artifactJSON{
		ID:         m.id,
		Type:       m.set.scheme.Name(),
		Processing: m.set.processing.String(),
		Fallback: fallbackJSON{
			Scheme:   m.set.scheme.Name(),
			Arity:    m.set.scheme.Arity(),
			Alphabet: m.set.scheme.Alphabet(),
		},
		NTokens: m.set.Len(),
		Tokens:  make([]tokenJSON, 0, m.set.Len()),
		Warning: m.warning,
	}
	if !m.created.IsZero() {
		art.CreatedAt = m.created.Format(time.RFC3339)
	}
	if m.stats != (Stats{}) {
		st := m.stats
		art.Stats = &st
	}
	for id := 0; id < m.set.Len(); id++ {
		t := m.set.Token(id)
		rec := tokenJSON{Kind: t.Kind.String()}
		switch t.Kind {
		case KindBase:
			rec.Byte = intp(int(t.Byte))
		case KindMarker:
			rec.Marker = t.Marker.String()
		case KindFallback:
			rec.Digit = intp(int(t.Digit))
		case KindMerge:
			rec.Left = intp(t.Left)
			rec.Right = intp(t.Right)
			rec.Text = m.set.Text(id)
		}
		art.Tokens = append(art.Tokens, rec)
	}
	return json.MarshalIndent(art, "", "  ")
}

// Save writes the artifact into dir under its canonical name and returns
// the full path.
func (m *Model) Save(dir string) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode token set: %w", err)
	}
	path := filepath.Join(dir, m.Name()+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write token set: %w", err)
	}
	return path, nil
}

// Load reads an artifact and rebuilds the model, validating every arena
// invariant before returning.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var art artifactJSON
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("parse token set %s: %w", path, err)
	}
	scheme, err := fallback.ByName(art.Type)
	if err != nil {
		return nil, fmt.Errorf("token set %s: %w", path, err)
	}
	processing, err := textproc.ParseProcessing(art.Processing)
	if err != nil {
		return nil, fmt.Errorf("token set %s: %w", path, err)
	}

	set := New(scheme, processing)
	fixed := set.Len()
	if len(art.Tokens) < fixed {
		return nil, fmt.Errorf("token set %s: %d tokens, want at least %d for %s/%s",
			path, len(art.Tokens), fixed, art.Type, art.Processing)
	}
	for id, rec := range art.Tokens {
		if id < fixed {
			if err := checkFixed(set, id, rec); err != nil {
				return nil, fmt.Errorf("token set %s: %w", path, err)
			}
			continue
		}
		if rec.Kind != KindMerge.String() || rec.Left == nil || rec.Right == nil {
			return nil, fmt.Errorf("token set %s: token %d: expected merge record, got kind %q", path, id, rec.Kind)
		}
		if *rec.Left < 0 || *rec.Left >= id || *rec.Right < 0 || *rec.Right >= id {
			return nil, fmt.Errorf("token set %s: merge token %d references (%d,%d) out of range", path, id, *rec.Left, *rec.Right)
		}
		set.AddMerge(*rec.Left, *rec.Right)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("token set %s: %w", path, err)
	}

	created, _ := time.Parse(time.RFC3339, art.CreatedAt)
	m := &Model{
		id:       art.ID,
		created:  created,
		set:      set,
		achieved: set.Len(),
		warning:  art.Warning,
	}
	if art.Stats != nil {
		m.stats = *art.Stats
	}
	return m, nil
}

func checkFixed(set *Set, id int, rec tokenJSON) error {
	t := set.Token(id)
	switch t.Kind {
	case KindBase:
		if rec.Kind != KindBase.String() || rec.Byte == nil || *rec.Byte != int(t.Byte) {
			return fmt.Errorf("token %d: want base byte %d, got kind %q", id, t.Byte, rec.Kind)
		}
	case KindFallback:
		if rec.Kind != KindFallback.String() || rec.Digit == nil || *rec.Digit != int(t.Digit) {
			return fmt.Errorf("token %d: want fallback digit %d, got kind %q", id, t.Digit, rec.Kind)
		}
	case KindMarker:
		if rec.Kind != KindMarker.String() || rec.Marker != t.Marker.String() {
			return fmt.Errorf("token %d: want marker %s, got kind %q marker %q", id, t.Marker, rec.Kind, rec.Marker)
		}
	}
	return nil
}
