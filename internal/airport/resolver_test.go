package airport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

func strPtr(s string) *string { return &s }

func testAirports() []domain.Airport {
	return []domain.Airport{
		{Name: "Amsterdam Airport Schiphol", City: "Amsterdam", Country: "Netherlands", IATA: strPtr("AMS"), ICAO: strPtr("EHAM")},
		{Name: "Los Angeles International Airport", City: "Los Angeles", Country: "United States", IATA: strPtr("LAX"), ICAO: strPtr("KLAX")},
		{Name: "Zürich Airport", City: "Zürich", Country: "Switzerland", IATA: strPtr("ZRH"), ICAO: strPtr("LSZH")},
		{Name: "Amsterdam Field", City: "Amsterdam", Country: "United States"},
	}
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 1.0, Ratio("", ""), 1e-9)
	assert.InDelta(t, 1.0, Ratio("abc", "abc"), 1e-9)
	assert.InDelta(t, 0.0, Ratio("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.75, Ratio("abcd", "bcde"), 1e-9)
	assert.InDelta(t, Ratio("schiphol", "shiphol"), Ratio("shiphol", "schiphol"), 1e-9)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "zurich", fold("  Zürich "))
	assert.Equal(t, "sao paulo", fold("São Paulo"))
}

func TestFindMatches(t *testing.T) {
	r := NewResolver(testAirports())

	matches := r.FindMatches("Amsterdam")
	require.NotEmpty(t, matches)
	assert.Equal(t, "AMS", matches[0].Airport.Code())
	for i, m := range matches {
		assert.True(t, domain.ValidConfidence(m.Confidence), "confidence %v out of range", m.Confidence)
		assert.Greater(t, m.Confidence, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, m.Confidence, matches[i-1].Confidence)
		}
		assert.NotEqual(t, "Amsterdam Field", m.Airport.Name, "uncoded airports are penalised below the threshold")
	}
}

func TestFindMatchesFoldsDiacritics(t *testing.T) {
	r := NewResolver(testAirports())

	matches := r.FindMatches("zurich")
	require.NotEmpty(t, matches)
	assert.Equal(t, "ZRH", matches[0].Airport.Code())
}

func TestFindMatchesEmptyText(t *testing.T) {
	r := NewResolver(testAirports())
	assert.Empty(t, r.FindMatches("   "))
}

func TestCandidates(t *testing.T) {
	matches := []domain.AirportMatch{
		{Confidence: 1, Airport: domain.Airport{Name: "A", IATA: strPtr("AMS"), ICAO: strPtr("EHAM")}},
		{Confidence: 0.9, Airport: domain.Airport{Name: "A again", IATA: strPtr("AMS")}},
		{Confidence: 0.8, Airport: domain.Airport{Name: "B", ICAO: strPtr("EHLE")}},
		{Confidence: 0.7, Airport: domain.Airport{Name: "C"}},
		{Confidence: 0.6, Airport: domain.Airport{Name: "D", IATA: strPtr("RTM")}},
	}

	got := Candidates(matches, 0)
	assert.Equal(t, []string{"AMS", "EHLE", "RTM"}, got.Values())

	got = Candidates(matches, 2)
	assert.Equal(t, []string{"AMS", "EHLE"}, got.Values())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airports.json")
	body := `[{"Name":"Amsterdam Airport Schiphol","City":"Amsterdam","Country":"Netherlands","IATA_FAA":"AMS","ICAO":"EHAM"},
	{"Name":"Nowhere Strip","City":"Nowhere","Country":"Nowhere","IATA_FAA":null,"ICAO":null}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
