package dialogue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestField_CategoryCount(t *testing.T) {
	records := toRecords(testFlights...)

	t.Run("single label", func(t *testing.T) {
		got := testDestination.CategoryCount(records)
		assert.Equal(t, map[string]int{"AMS": 3, "LAX": 2}, got)
	})

	t.Run("multi label", func(t *testing.T) {
		got := testCarrier.CategoryCount(records)
		assert.Equal(t, map[string]int{"KL": 3, "DL": 1, "UA": 2}, got)
	})

	t.Run("numeric buckets", func(t *testing.T) {
		got := testPrice.CategoryCount(records)
		assert.Equal(t, map[string]int{"cheap": 2, "moderate": 2, "expensive": 1}, got)
	})

	t.Run("unclassifiable records are skipped", func(t *testing.T) {
		got := testDestination.CategoryCount(toRecords(`{"origin":"LAX"}`, `{"destination":"AMS"}`))
		assert.Equal(t, map[string]int{"AMS": 1}, got)
	})

	t.Run("several keys are joined", func(t *testing.T) {
		route := NewField("Route", "origin", "destination")
		got := route.CategoryCount(records[:1])
		assert.Equal(t, map[string]int{"LAX/AMS": 1}, got)
	})
}

func TestNumField_OutsideBuckets(t *testing.T) {
	f := NewNumField("Price", []string{"price"}, []NumCategory{
		{Label: "cheap", Low: 0, High: 150},
	}, ParsePrice)

	records := toRecords(
		`{"price":"USD100"}`,
		`{"price":"USD1000"}`,
		`{"price":"free"}`,
	)
	assert.Equal(t, map[string]int{"cheap": 1}, f.CategoryCount(records))
	assert.Equal(t, 0.0, f.Entropy(records))
}

func TestNumField_FirstBucketWins(t *testing.T) {
	f := NewNumField("Duration", []string{"totalDuration"}, []NumCategory{
		{Label: "short", Low: 0, High: 120},
		{Label: "overlap", Low: 60, High: 200},
	}, ParseNumber)

	assert.Equal(t, []string{"short"}, f.Categories([]byte(`{"totalDuration":90}`)))
	assert.Equal(t, []string{"overlap"}, f.Categories([]byte(`{"totalDuration":150}`)))
}

func TestField_Entropy(t *testing.T) {
	tests := []struct {
		name  string
		field *Field
		in    []string
		want  float64
	}{
		{"empty", testDestination, nil, 0},
		{"single category", testDestination, testFlights[:3], 0},
		{"same origin", testOrigin, testFlights[:2], 0},
		{"even split", testOrigin, testFlights[1:3], math.Log(2)},
		{"price distribution", testPrice, testFlights, -(2*0.4*math.Log(0.4) + 0.2*math.Log(0.2))},
		{"destination 3/2", testDestination, testFlights, -(0.6*math.Log(0.6) + 0.4*math.Log(0.4))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.field.Entropy(toRecords(tt.in...))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestField_Matches(t *testing.T) {
	r := []byte(testFlights[1])

	assert.True(t, testDestination.Matches(r, "AMS"))
	assert.True(t, testDestination.Matches(r, "ams"))
	assert.False(t, testDestination.Matches(r, "LAX"))
	assert.True(t, testCarrier.Matches(r, "DL"))
	assert.True(t, testCarrier.Matches(r, "KL"))
	assert.True(t, testPrice.Matches(r, "moderate"))
	assert.True(t, testPrice.Matches(r, "300"))
	assert.False(t, testPrice.Matches(r, "cheap"))
	assert.False(t, testPrice.Matches(r, "not a price"))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"USD83.10", 83.10, false},
		{"EUR1200", 1200, false},
		{"42", 42, false},
		{"free", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestParser(t *testing.T) {
	p, err := Parser("price")
	assert.NoError(t, err)
	v, _ := p("USD10")
	assert.Equal(t, 10.0, v)

	_, err = Parser("roman")
	assert.Error(t, err)
}
