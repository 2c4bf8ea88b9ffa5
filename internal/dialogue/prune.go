package dialogue

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

// Prune reduces an ambiguous answer list. Candidates with a confidence outside
// (0,1] are dropped; of the rest, those reaching pruneRatio times the top
// confidence are kept, at most pruneMax of them. Numeric fields first discard
// candidates that do not parse or lie outside the tolerance band around the
// median parse.
func (f *Field) Prune(values domain.Candidates) (domain.Candidates, error) {
	if len(values) == 0 {
		return nil, ErrEmptyAnswer
	}
	if f.kind == Numeric {
		var err error
		values, err = f.consistentNumbers(values)
		if err != nil {
			return nil, err
		}
	}
	return f.pruneByConfidence(values)
}

func (f *Field) pruneByConfidence(values domain.Candidates) (domain.Candidates, error) {
	valid := make(domain.Candidates, 0, len(values))
	for _, c := range values.Sorted() {
		if domain.ValidConfidence(c.Confidence) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil, ErrAmbiguityUnresolved
	}

	threshold := valid[0].Confidence * f.pruneRatio
	kept := make(domain.Candidates, 0, f.pruneMax)
	for _, c := range valid {
		if c.Confidence < threshold || len(kept) == f.pruneMax {
			break
		}
		kept = append(kept, c)
	}
	return kept, nil
}

func (f *Field) consistentNumbers(values domain.Candidates) (domain.Candidates, error) {
	parsed := make([]float64, 0, len(values))
	usable := make(domain.Candidates, 0, len(values))
	for _, c := range values {
		n, err := f.numericValue(c.Value)
		if err != nil {
			continue
		}
		parsed = append(parsed, n)
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return nil, ErrAmbiguityUnresolved
	}
	if len(usable) == 1 {
		return usable, nil
	}

	median, err := stats.Median(parsed)
	if err != nil {
		return nil, ErrAmbiguityUnresolved
	}
	mad, err := stats.MedianAbsoluteDeviation(parsed)
	if err != nil {
		mad = 0
	}
	band := math.Max(1, math.Max(2*mad, 0.1*math.Abs(median)))

	kept := make(domain.Candidates, 0, len(usable))
	for i, c := range usable {
		if math.Abs(parsed[i]-median) <= band {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil, ErrAmbiguityUnresolved
	}
	return kept, nil
}

// numericValue parses an answer value. A bucket label stands for the middle
// of its bucket, or its lower bound when the bucket is open ended.
func (f *Field) numericValue(v string) (float64, error) {
	for _, b := range f.buckets {
		if !strings.EqualFold(b.Label, v) {
			continue
		}
		if math.IsInf(b.High, 1) || b.High >= math.MaxFloat64/2 {
			return b.Low, nil
		}
		return (b.Low + b.High) / 2, nil
	}
	return f.parse(v)
}
