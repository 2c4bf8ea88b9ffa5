package dialogue

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"gonum.org/v1/gonum/stat"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

// Kind tags how a Field derives categories from a record.
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Numeric:
		return "numeric"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	DefaultPruneRatio = 0.5
	DefaultPruneMax   = 3
)

// NumCategory is the half-open bucket [Low, High).
type NumCategory struct {
	Label string  `yaml:"label" json:"label"`
	Low   float64 `yaml:"low" json:"low"`
	High  float64 `yaml:"high" json:"high"`
}

func (c NumCategory) Contains(v float64) bool {
	return v >= c.Low && v < c.High
}

// ParseFunc turns a raw record or answer value into a number.
type ParseFunc func(raw string) (float64, error)

// Field describes one queryable attribute of a record. Fields are immutable
// after construction and may be shared between sessions; per-session feedback
// lives in the Manager.
type Field struct {
	name       string
	keys       []string
	kind       Kind
	buckets    []NumCategory
	parse      ParseFunc
	pruneRatio float64
	pruneMax   int
}

// NewField creates a categorical field. Keys are gjson paths into a record.
func NewField(name string, keys ...string) *Field {
	return &Field{
		name:       name,
		keys:       append([]string(nil), keys...),
		kind:       Categorical,
		pruneRatio: DefaultPruneRatio,
		pruneMax:   DefaultPruneMax,
	}
}

// NewNumField creates a numeric field whose values are bucketed by the
// ordered categories after parsing.
func NewNumField(name string, keys []string, buckets []NumCategory, parse ParseFunc) *Field {
	f := NewField(name, keys...)
	f.kind = Numeric
	f.buckets = append([]NumCategory(nil), buckets...)
	f.parse = parse
	return f
}

// WithPrune returns a copy of the field using the given pruning policy.
func (f *Field) WithPrune(ratio float64, max int) *Field {
	cp := *f
	if ratio > 0 && ratio <= 1 {
		cp.pruneRatio = ratio
	}
	if max > 0 {
		cp.pruneMax = max
	}
	return &cp
}

func (f *Field) Name() string {
	return f.name
}

func (f *Field) Keys() []string {
	return append([]string(nil), f.keys...)
}

func (f *Field) Kind() Kind {
	return f.kind
}

func (f *Field) Buckets() []NumCategory {
	return append([]NumCategory(nil), f.buckets...)
}

// rawValues returns the labels found under the field keys.
// Array results contribute one label per element; several keys are joined
// with "/". ok is false when any key is missing from the record.
func (f *Field) rawValues(record domain.Record) (vals []string, ok bool) {
	combined := []string{""}
	for i, key := range f.keys {
		res := gjson.GetBytes(record, key)
		if !res.Exists() {
			return nil, false
		}
		var parts []string
		if res.IsArray() {
			for _, el := range res.Array() {
				parts = append(parts, el.String())
			}
		} else {
			parts = []string{res.String()}
		}
		if len(parts) == 0 {
			return nil, false
		}

		next := make([]string, 0, len(combined)*len(parts))
		for _, prefix := range combined {
			for _, p := range parts {
				if i == 0 {
					next = append(next, p)
				} else {
					next = append(next, prefix+"/"+p)
				}
			}
		}
		combined = next
	}
	return combined, len(f.keys) > 0
}

// Bucket returns the first bucket containing v.
func (f *Field) Bucket(v float64) (NumCategory, bool) {
	for _, b := range f.buckets {
		if b.Contains(v) {
			return b, true
		}
	}
	return NumCategory{}, false
}

// Categories classifies a record. The result is empty when the record cannot
// be classified.
func (f *Field) Categories(record domain.Record) []string {
	vals, ok := f.rawValues(record)
	if !ok {
		return nil
	}

	seen := make(map[string]bool, len(vals))
	labels := make([]string, 0, len(vals))
	for _, v := range vals {
		label := v
		if f.kind == Numeric {
			n, err := f.parse(v)
			if err != nil {
				continue
			}
			b, ok := f.Bucket(n)
			if !ok {
				continue
			}
			label = b.Label
		}
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels
}

// CategoryCount tallies categories over records; multi-label records count
// once per label.
func (f *Field) CategoryCount(records []domain.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		for _, label := range f.Categories(r) {
			counts[label]++
		}
	}
	return counts
}

// Entropy is the Shannon entropy (natural log) of the category distribution.
func (f *Field) Entropy(records []domain.Record) float64 {
	return entropy(f.CategoryCount(records))
}

func entropy(counts map[string]int) float64 {
	if len(counts) <= 1 {
		return 0
	}
	labels := make([]string, 0, len(counts))
	total := 0
	for label, n := range counts {
		labels = append(labels, label)
		total += n
	}
	sort.Strings(labels)

	p := make([]float64, len(labels))
	for i, label := range labels {
		p[i] = float64(counts[label]) / float64(total)
	}
	return stat.Entropy(p)
}

// Matches reports whether the record satisfies value for this field. Numeric
// fields accept a bucket label or a number falling into the same bucket.
func (f *Field) Matches(record domain.Record, value string) bool {
	want := value
	if f.kind == Numeric && !f.isBucketLabel(value) {
		n, err := f.parse(value)
		if err != nil {
			return false
		}
		b, ok := f.Bucket(n)
		if !ok {
			return false
		}
		want = b.Label
	}
	for _, label := range f.Categories(record) {
		if strings.EqualFold(label, want) {
			return true
		}
	}
	return false
}

func (f *Field) isBucketLabel(v string) bool {
	for _, b := range f.buckets {
		if strings.EqualFold(b.Label, v) {
			return true
		}
	}
	return false
}
