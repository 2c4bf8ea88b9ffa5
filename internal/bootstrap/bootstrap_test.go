package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/flights"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSessionConfigFromDataset(t *testing.T) {
	t.Setenv("FIELDS_PATH", "")
	t.Setenv("FLIGHTS_PROVIDER", "dataset")
	t.Setenv("FLIGHTS_DATASET_PATH", writeFile(t, "flights.json",
		`[{"price":"USD100.00","origin":"LAX","destination":"AMS","departureDate":"2016-12-09","nonstop":"yes"}]`))
	t.Setenv("AIRPORTS_PATH", writeFile(t, "airports.json",
		`[{"Name":"Amsterdam Airport Schiphol","City":"Amsterdam","Country":"Netherlands","IATA_FAA":"AMS","ICAO":"EHAM"}]`))
	t.Setenv("MAX_DATA", "10")

	cfg, err := SessionConfig(nil, zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, cfg.Fields, 8)
	assert.Equal(t, []string{"Destination", "Origin", "DepartureDate"}, cfg.Minimal)
	assert.Equal(t, 10, cfg.MaxData)
	require.IsType(t, &flights.Dataset{}, cfg.Database)
	assert.Equal(t, 1, cfg.Database.(*flights.Dataset).Len())
	assert.NotNil(t, cfg.Airports)
	assert.Nil(t, cfg.Turns)
	assert.NotNil(t, cfg.Extractor)
}

func TestSessionConfigWithoutAirports(t *testing.T) {
	t.Setenv("FIELDS_PATH", "")
	t.Setenv("FLIGHTS_PROVIDER", "dataset")
	t.Setenv("FLIGHTS_DATASET_PATH", writeFile(t, "flights.json", `[]`))
	t.Setenv("AIRPORTS_PATH", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := SessionConfig(nil, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, cfg.Airports)
}

func TestDatabaseProviders(t *testing.T) {
	t.Setenv("QPX_API_KEY", "")
	_, err := Database("qpx", nil, nil, zap.NewNop())
	assert.ErrorIs(t, err, flights.ErrMissingAPIKey)

	t.Setenv("QPX_API_KEY", "key")
	db, err := Database("qpx", nil, nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &flights.QPXDatabase{}, db)

	_, err = Database("amadeus", nil, nil, zap.NewNop())
	assert.Error(t, err)
}
