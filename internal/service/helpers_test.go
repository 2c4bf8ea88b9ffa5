package service

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/airport"
	"github.com/Harshitk-cp/skybot/internal/dialogue"
	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/flights"
	"github.com/Harshitk-cp/skybot/internal/nlu"
)

type mockTurnStore struct {
	mock.Mock
}

func (m *mockTurnStore) Append(ctx context.Context, t *domain.DialogueTurn) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTurnStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.DialogueTurn, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DialogueTurn), args.Error(1)
}

func testFields() []*dialogue.Field {
	return []*dialogue.Field{
		dialogue.NewField("Destination", "destination"),
		dialogue.NewField("Origin", "origin"),
		dialogue.NewField("DepartureDate", "departureDate"),
		dialogue.NewField("NonStop", "nonstop"),
		dialogue.NewNumField("Price", []string{"price"}, []dialogue.NumCategory{
			{Label: "cheap", Low: 0, High: 150},
			{Label: "moderate", Low: 150, High: 800},
			{Label: "expensive", Low: 800, High: 1e9},
		}, dialogue.ParsePrice),
		dialogue.NewField("Carrier", "carriers"),
	}
}

func testFlight(origin, destination, date, price, nonstop string, carriers ...string) flights.Flight {
	return flights.Flight{
		Price:         price,
		Origin:        origin,
		Destination:   destination,
		DepartureDate: date,
		NonStop:       nonstop,
		Carriers:      carriers,
	}
}

// Two LAX-AMS flights on 2016-12-09 differ only in stops.
func testDataset(t *testing.T) *flights.Dataset {
	t.Helper()
	ds, err := flights.NewDataset([]flights.Flight{
		testFlight("LAX", "AMS", "2016-12-09", "USD200.00", "yes", "KL"),
		testFlight("LAX", "AMS", "2016-12-09", "USD450.00", "no", "KL"),
		testFlight("LAX", "AMS", "2016-12-10", "USD900.00", "yes", "KL"),
		testFlight("SFO", "AMS", "2016-12-09", "USD300.00", "no", "UA"),
	}, testFields())
	require.NoError(t, err)
	return ds
}

func strPtr(s string) *string { return &s }

func testSessionConfig(t *testing.T) SessionConfig {
	return SessionConfig{
		Fields:    testFields(),
		Minimal:   []string{"Destination", "Origin", "DepartureDate"},
		Database:  testDataset(t),
		Extractor: nlu.NewKeywordExtractor(),
		Airports: airport.NewResolver([]domain.Airport{
			{Name: "Amsterdam Airport Schiphol", City: "Amsterdam", Country: "Netherlands", IATA: strPtr("AMS"), ICAO: strPtr("EHAM")},
			{Name: "Los Angeles International Airport", City: "Los Angeles", Country: "United States", IATA: strPtr("LAX"), ICAO: strPtr("KLAX")},
		}),
		NewRand:  func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) },
		UserName: "Ada",
	}
}

func newTestSession(t *testing.T, cfg SessionConfig) *Session {
	t.Helper()
	s, err := newSession(uuid.New(), cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func eventTypes(events []domain.Event) []domain.EventType {
	out := make([]domain.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
