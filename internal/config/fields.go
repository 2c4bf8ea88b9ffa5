package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Harshitk-cp/skybot/internal/dialogue"
)

//go:embed fields.yaml
var defaultFields []byte

// FieldSet is the parsed field configuration.
type FieldSet struct {
	Fields  []*dialogue.Field
	Minimal []string
}

type fieldsFile struct {
	Minimal []string   `yaml:"minimal"`
	Fields  []fieldDef `yaml:"fields"`
}

type fieldDef struct {
	Name    string      `yaml:"name"`
	Kind    string      `yaml:"kind"`
	Keys    []string    `yaml:"keys"`
	Parser  string      `yaml:"parser"`
	Buckets []bucketDef `yaml:"buckets"`
	Prune   *pruneDef   `yaml:"prune"`
}

type bucketDef struct {
	Label string   `yaml:"label"`
	Low   float64  `yaml:"low"`
	High  *float64 `yaml:"high"` // open-ended when absent
}

type pruneDef struct {
	Ratio float64 `yaml:"ratio"`
	Max   int     `yaml:"max"`
}

// LoadFields reads the field definitions at path, or the built-in set when
// path is empty. ratio and max set the pruning policy of fields that do not
// override it.
func LoadFields(path string, ratio float64, max int) (*FieldSet, error) {
	data := defaultFields
	if path != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read fields %s: %w", path, err)
		}
		data = b
	}
	return ParseFields(data, ratio, max)
}

func ParseFields(data []byte, ratio float64, max int) (*FieldSet, error) {
	var file fieldsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fields: %w", err)
	}
	if len(file.Fields) == 0 {
		return nil, fmt.Errorf("parse fields: no fields defined")
	}

	set := &FieldSet{}
	seen := make(map[string]bool, len(file.Fields))
	for _, def := range file.Fields {
		f, err := def.build()
		if err != nil {
			return nil, err
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("field %q: defined twice", def.Name)
		}
		seen[def.Name] = true

		if def.Prune != nil {
			f = f.WithPrune(def.Prune.Ratio, def.Prune.Max)
		} else {
			f = f.WithPrune(ratio, max)
		}
		set.Fields = append(set.Fields, f)
	}

	for _, name := range file.Minimal {
		if !seen[name] {
			return nil, fmt.Errorf("minimal field %q: %w", name, dialogue.ErrUnknownField)
		}
		set.Minimal = append(set.Minimal, name)
	}
	return set, nil
}

func (s fieldDef) build() (*dialogue.Field, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("field without name")
	}
	if len(s.Keys) == 0 {
		return nil, fmt.Errorf("field %q: at least one key is required", s.Name)
	}

	switch s.Kind {
	case "", "categorical":
		return dialogue.NewField(s.Name, s.Keys...), nil
	case "numeric":
	default:
		return nil, fmt.Errorf("field %q: unknown kind %q", s.Name, s.Kind)
	}

	parse, err := dialogue.Parser(s.Parser)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", s.Name, err)
	}
	if len(s.Buckets) == 0 {
		return nil, fmt.Errorf("field %q: numeric fields need buckets", s.Name)
	}
	buckets := make([]dialogue.NumCategory, 0, len(s.Buckets))
	for _, b := range s.Buckets {
		high := math.Inf(1)
		if b.High != nil {
			high = *b.High
		}
		if b.Label == "" || high <= b.Low {
			return nil, fmt.Errorf("field %q: invalid bucket %q [%v, %v)", s.Name, b.Label, b.Low, high)
		}
		buckets = append(buckets, dialogue.NumCategory{Label: b.Label, Low: b.Low, High: high})
	}
	return dialogue.NewNumField(s.Name, s.Keys, buckets, parse), nil
}
