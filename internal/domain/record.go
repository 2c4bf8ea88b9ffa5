package domain

import (
	"encoding/json"
	"sort"
)

// Record is one candidate result (a flight) stored as a JSON document.
// Fields address it with gjson paths.
type Record = json.RawMessage

// Candidate is one ranked value for an attribute.
type Candidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Candidates is an answer list, ordered by descending confidence.
type Candidates []Candidate

// Single builds a one-value answer with full confidence.
func Single(value string) Candidates {
	return Candidates{{Value: value, Confidence: 1}}
}

// ValidConfidence reports whether c lies in (0,1].
func ValidConfidence(c float64) bool {
	return c > 0 && c <= 1
}

// Sorted returns a copy ordered by descending confidence. Equal confidences
// keep their input order.
func (cs Candidates) Sorted() Candidates {
	out := make(Candidates, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// Values returns only the candidate values, in order.
func (cs Candidates) Values() []string {
	vals := make([]string, len(cs))
	for i, c := range cs {
		vals[i] = c.Value
	}
	return vals
}

// UserState maps attribute name to the ranked values the user gave for it.
type UserState map[string]Candidates

// Clone deep-copies the state.
func (s UserState) Clone() UserState {
	out := make(UserState, len(s))
	for k, v := range s {
		cp := make(Candidates, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
