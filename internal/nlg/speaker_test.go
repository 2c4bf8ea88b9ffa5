package nlg

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/skybot/internal/dialogue"
	"github.com/Harshitk-cp/skybot/internal/flights"
)

func newTestSpeaker() *Speaker {
	return NewSpeaker(rand.New(rand.NewPCG(1, 2)))
}

func TestAskTracksQuestions(t *testing.T) {
	s := newTestSpeaker()
	origin := dialogue.NewField("Origin", "origin")

	q := s.Ask(origin)
	assert.Contains(t, []string{
		"Can you please tell me your desired place of departure?",
		"Please tell me your desired place of departure.",
		"What is your desired place of departure?",
		"Where do you want to fly from?",
		"From where do you want to fly?",
	}, q)
	s.Ask(origin)

	assert.Equal(t, 2, s.Asked("Origin"))
	assert.Equal(t, 0, s.Asked("Destination"))
	assert.Same(t, origin, s.LastQuestion())
}

func TestAskUnknownFieldUsesName(t *testing.T) {
	s := newTestSpeaker()
	q := s.Ask(dialogue.NewField("Meal", "meal"))
	assert.Contains(t, q, "meal")
}

func TestAskNonStop(t *testing.T) {
	s := newTestSpeaker()
	q := s.Ask(dialogue.NewField("NonStop", "nonStop"))
	assert.Contains(t, nonStopQuestions, q)
}

func TestAskNilField(t *testing.T) {
	s := newTestSpeaker()
	q := s.Ask(nil)
	assert.True(t, strings.HasSuffix(q, "I couldn't come up with another question."))
	assert.Nil(t, s.LastQuestion())
}

func TestInform(t *testing.T) {
	s := newTestSpeaker()

	assert.Contains(t, s.Inform(0), "information")
	assert.Contains(t, s.Inform(42), "42 flights")
}

func TestConfirm(t *testing.T) {
	s := newTestSpeaker()
	assert.Contains(t, s.Confirm("AMS"), "AMS")
}

func TestError(t *testing.T) {
	s := newTestSpeaker()
	assert.Contains(t, s.Error("no attribute values provided"), `"no attribute values provided"`)
}

func TestFlights(t *testing.T) {
	s := newTestSpeaker()

	assert.Equal(t, []string{"Sorry, I couldn't find any flights matching your query."}, s.Flights(nil))

	f := flights.Flight{
		Price:         "USD100.00",
		Origin:        "LAX",
		Destination:   "AMS",
		DepartureDate: "2016-12-09 10:00-08:00",
		ArrivalDate:   "2016-12-10 06:00+01:00",
		Carriers:      []string{"KL"},
	}
	few := s.Flights([]flights.Flight{f, f})
	require.Len(t, few, 3)
	assert.Equal(t, "Here are the 2 flights I could find:", few[0])

	many := make([]flights.Flight, 12)
	for i := range many {
		many[i] = f
	}
	lines := s.Flights(many)
	require.Len(t, lines, MaxShown+1)
	assert.Equal(t, "I found 12 flights in total but I will only show the first 10 flights:", lines[0])
}

func TestGreeting(t *testing.T) {
	s := newTestSpeaker()
	assert.Equal(t, "Hello Ada!", s.Greeting("Ada")[0])
	assert.Equal(t, "Hello there!", s.Greeting("")[0])
}
