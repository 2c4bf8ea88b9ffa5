package airport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

// MinScore is the lowest row score reported as a match.
const MinScore = 0.2

// missingCodePenalty scales rows lacking an IATA or ICAO code.
const missingCodePenalty = 0.05

const partialMatchBonus = 1.5

type column struct {
	name   string
	weight float64
	value  func(domain.Airport) *string
}

var columns = []column{
	{"Name", 1.0, func(a domain.Airport) *string { return &a.Name }},
	{"City", 0.5, func(a domain.Airport) *string { return &a.City }},
	{"Country", 0.3, func(a domain.Airport) *string { return &a.Country }},
	{"IATA_FAA", 1.2, func(a domain.Airport) *string { return a.IATA }},
	{"ICAO", 1.5, func(a domain.Airport) *string { return a.ICAO }},
}

// Resolver fuzzily matches free text against a list of airports.
type Resolver struct {
	airports []domain.Airport
	folded   [][]string // per airport, folded column values ("" when absent)
}

func NewResolver(airports []domain.Airport) *Resolver {
	r := &Resolver{airports: airports, folded: make([][]string, len(airports))}
	for i, a := range airports {
		vals := make([]string, len(columns))
		for j, c := range columns {
			if v := c.value(a); v != nil {
				vals[j] = fold(*v)
			}
		}
		r.folded[i] = vals
	}
	return r
}

// Load reads an airports JSON array.
func Load(path string) (*Resolver, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read airports %s: %w", path, err)
	}
	var airports []domain.Airport
	if err := json.Unmarshal(data, &airports); err != nil {
		return nil, fmt.Errorf("parse airports %s: %w", path, err)
	}
	return NewResolver(airports), nil
}

func (r *Resolver) Len() int {
	return len(r.airports)
}

// FindMatches scores every airport against text and returns those above
// MinScore, best first. Confidences are clamped to (0,1].
func (r *Resolver) FindMatches(text string) []domain.AirportMatch {
	query := fold(text)
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil
	}

	var matches []domain.AirportMatch
	for i, a := range r.airports {
		score := r.score(i, a, query, words)
		if score > MinScore {
			matches = append(matches, domain.AirportMatch{Confidence: score, Airport: a})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	for i := range matches {
		if matches[i].Confidence > 1 {
			matches[i].Confidence = 1
		}
	}
	return matches
}

func (r *Resolver) score(i int, a domain.Airport, query string, words []string) float64 {
	multiplier := 1.0
	if a.IATA == nil {
		multiplier *= missingCodePenalty
	}
	if a.ICAO == nil {
		multiplier *= missingCodePenalty
	}

	total := 0.0
	applicable := 0
	for j, c := range columns {
		if c.value(a) == nil {
			continue
		}
		value := r.folded[i][j]
		colScore := Ratio(value, query) * c.weight
		for _, w := range words {
			if strings.Contains(value, w) {
				colScore += partialMatchBonus / float64(len(words)) * c.weight
			}
		}
		total += colScore
		applicable++
	}
	if applicable == 0 {
		return 0
	}
	return total * multiplier / float64(applicable)
}

// Candidates converts the top matches into an inform answer keyed by airport
// code. Airports without a code and repeated codes are skipped.
func Candidates(matches []domain.AirportMatch, limit int) domain.Candidates {
	seen := make(map[string]bool)
	var out domain.Candidates
	for _, m := range matches {
		code := m.Airport.Code()
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, domain.Candidate{Value: code, Confidence: m.Confidence})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// fold lowercases s and strips diacritics.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
