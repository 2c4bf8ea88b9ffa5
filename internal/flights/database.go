package flights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/dialogue"
	"github.com/Harshitk-cp/skybot/internal/domain"
)

var ErrMissingSliceParameter = errors.New("origin, destination and departure date are required to search flights")

// SliceFields names the dialogue fields that make up a provider search.
type SliceFields struct {
	Origin        string
	Destination   string
	DepartureDate string
}

var DefaultSliceFields = SliceFields{
	Origin:        "Origin",
	Destination:   "Destination",
	DepartureDate: "DepartureDate",
}

// matcher filters records against the attributes a provider cannot search by.
type matcher struct {
	fields map[string]*dialogue.Field
}

func newMatcher(fields []*dialogue.Field) matcher {
	m := matcher{fields: make(map[string]*dialogue.Field, len(fields))}
	for _, f := range fields {
		m.fields[f.Name()] = f
	}
	return m
}

func (m matcher) matches(r domain.Record, query map[string]string, skip func(string) bool) (bool, error) {
	for attr, val := range query {
		if skip != nil && skip(attr) {
			continue
		}
		f, ok := m.fields[attr]
		if !ok {
			return false, fmt.Errorf("%w: %s", dialogue.ErrUnknownField, attr)
		}
		if !f.Matches(r, val) {
			return false, nil
		}
	}
	return true, nil
}

// QPXDatabase searches the provider for the slice attributes and filters the
// extracted flights by the remaining ones.
type QPXDatabase struct {
	client  *Client
	matcher matcher
	slice   SliceFields
	logger  *zap.Logger
}

func NewQPXDatabase(client *Client, fields []*dialogue.Field, slice SliceFields, logger *zap.Logger) *QPXDatabase {
	return &QPXDatabase{
		client:  client,
		matcher: newMatcher(fields),
		slice:   slice,
		logger:  logger,
	}
}

func (d *QPXDatabase) Query(ctx context.Context, query map[string]string) ([]domain.Record, error) {
	origin, destination, date := query[d.slice.Origin], query[d.slice.Destination], query[d.slice.DepartureDate]
	if origin == "" || destination == "" || date == "" {
		return nil, ErrMissingSliceParameter
	}

	raw, err := d.client.Search(ctx, NewSearchRequest(origin, destination, date))
	if err != nil {
		return nil, err
	}
	flights, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	isSlice := func(attr string) bool {
		return attr == d.slice.Origin || attr == d.slice.Destination || attr == d.slice.DepartureDate
	}

	records := make([]domain.Record, 0, len(flights))
	for _, f := range flights {
		r, err := f.Record()
		if err != nil {
			return nil, err
		}
		ok, err := d.matcher.matches(r, query, isSlice)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, r)
		}
	}
	d.logger.Debug("provider query",
		zap.Any("query", query),
		zap.Int("flights", len(flights)),
		zap.Int("matched", len(records)))
	return records, nil
}

// Dataset is an in-memory Database over a fixed set of flights.
type Dataset struct {
	records []domain.Record
	matcher matcher
}

func NewDataset(flights []Flight, fields []*dialogue.Field) (*Dataset, error) {
	d := &Dataset{matcher: newMatcher(fields)}
	for _, f := range flights {
		if f.Origin == "" {
			f.Derive()
		}
		r, err := f.Record()
		if err != nil {
			return nil, err
		}
		d.records = append(d.records, r)
	}
	return d, nil
}

// LoadDataset reads a JSON array of flights.
func LoadDataset(path string, fields []*dialogue.Field) (*Dataset, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	var flights []Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return NewDataset(flights, fields)
}

func (d *Dataset) Query(ctx context.Context, query map[string]string) ([]domain.Record, error) {
	var out []domain.Record
	for _, r := range d.records {
		ok, err := d.matcher.matches(r, query, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (d *Dataset) Len() int {
	return len(d.records)
}
