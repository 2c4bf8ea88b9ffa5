package dialogue

import (
	"context"
	"errors"
	"math"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

// fakeDatabase filters a fixed record slice with the configured fields and
// remembers every query it receives.
type fakeDatabase struct {
	records []domain.Record
	fields  map[string]*Field
	queries []map[string]string
	failOn  map[string]bool // value that makes a query fail
	fixed   int             // when > 0, every query returns this many copies of records[0]
	onQuery func()          // runs after each query is recorded
}

func newFakeDatabase(fields []*Field, records ...string) *fakeDatabase {
	db := &fakeDatabase{fields: make(map[string]*Field), failOn: make(map[string]bool)}
	for _, f := range fields {
		db.fields[f.Name()] = f
	}
	for _, r := range records {
		db.records = append(db.records, domain.Record(r))
	}
	return db
}

func (d *fakeDatabase) Query(ctx context.Context, query map[string]string) ([]domain.Record, error) {
	cp := make(map[string]string, len(query))
	for k, v := range query {
		cp[k] = v
		if d.failOn[v] {
			d.queries = append(d.queries, cp)
			return nil, errors.New("provider unavailable")
		}
	}
	d.queries = append(d.queries, cp)
	if d.onQuery != nil {
		d.onQuery()
	}

	if d.fixed > 0 {
		out := make([]domain.Record, d.fixed)
		for i := range out {
			out[i] = d.records[0]
		}
		return out, nil
	}

	var out []domain.Record
	for _, r := range d.records {
		ok := true
		for attr, val := range query {
			if !d.fields[attr].Matches(r, val) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

var (
	testDestination   = NewField("Destination", "destination")
	testOrigin        = NewField("Origin", "origin")
	testDepartureDate = NewField("DepartureDate", "departureDate")
	testPrice         = NewNumField("Price", []string{"price"}, []NumCategory{
		{Label: "cheap", Low: 0, High: 150},
		{Label: "moderate", Low: 150, High: 800},
		{Label: "expensive", Low: 800, High: math.Inf(1)},
	}, ParsePrice)
	testCarrier = NewField("Carrier", "carriers")
)

func testFields() []*Field {
	return []*Field{testDestination, testOrigin, testDepartureDate, testPrice, testCarrier}
}

var testFlights = []string{
	`{"destination":"AMS","origin":"LAX","departureDate":"2016-12-09","price":"USD120.00","carriers":["KL"]}`,
	`{"destination":"AMS","origin":"LAX","departureDate":"2016-12-10","price":"USD450.00","carriers":["DL","KL"]}`,
	`{"destination":"AMS","origin":"SFO","departureDate":"2016-12-09","price":"USD900.00","carriers":["UA"]}`,
	`{"destination":"LAX","origin":"AMS","departureDate":"2016-12-09","price":"USD200.00","carriers":["KL"]}`,
	`{"destination":"LAX","origin":"SFO","departureDate":"2016-12-11","price":"USD100.00","carriers":["UA"]}`,
}

func toRecords(raw ...string) []domain.Record {
	out := make([]domain.Record, len(raw))
	for i, r := range raw {
		out[i] = domain.Record(r)
	}
	return out
}
