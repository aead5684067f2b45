package aggregate

import (
	"sort"
	"time"
)

// SetState accumulates unique textual tokens between flushes. At flush it
// reports only the cardinality, as a "count" field, then clears.
type SetState struct {
	tokens []string
}

func (s *SetState) Type() Type { return Set }

func (s *SetState) Apply(sample Sample) {
	i := sort.SearchStrings(s.tokens, sample.Token)
	if i < len(s.tokens) && s.tokens[i] == sample.Token {
		return
	}
	s.tokens = append(s.tokens, "")
	copy(s.tokens[i+1:], s.tokens[i:])
	s.tokens[i] = sample.Token
}

func (s *SetState) Render(time.Time) []Field {
	return []Field{{Suffix: "count", Value: float64(len(s.tokens))}}
}

func (s *SetState) Reset() { s.tokens = s.tokens[:0] }

func (s *SetState) Dispose() { s.tokens = nil }

// Values returns the set's current members in sorted order, the live
// per-metric view the admin HTTP surface renders.
func (s *SetState) Values() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}
