// Package nlg turns dialogue decisions into user-facing sentences.
package nlg

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Harshitk-cp/skybot/internal/dialogue"
	"github.com/Harshitk-cp/skybot/internal/flights"
)

// MaxShown caps how many flights are listed in one answer.
const MaxShown = 10

var genericQuestions = []string{
	"Can you please tell me your desired %s?",
	"Please tell me your desired %s.",
	"What is your desired %s?",
}

var thanks = []string{"thanks", "thank you", "awesome", "excellent", "great", "good choice"}

var apologies = []string{"Oh no! ☹", "I am inconsolable... ☹", "I'm so sorry! ☹"}

type phrasing struct {
	what  string
	extra []string
}

var fieldPhrasings = map[string]phrasing{
	"Origin":        {"place of departure", []string{"Where do you want to fly from?", "From where do you want to fly?"}},
	"Destination":   {"destination", []string{"Where do you want to fly to?"}},
	"DepartureDate": {"date of departure", []string{"When do you want to fly?"}},
	"Price":         {"price range", []string{"How much would you like to spend?"}},
	"Carrier":       {"airline", []string{"Which airline do you prefer?"}},
	"Duration":      {"travel time", []string{"How long may the trip take?"}},
	"Cabin":         {"cabin class", []string{"Which cabin class do you want to fly in?"}},
}

var nonStopQuestions = []string{
	"Do you want to fly non-stop?",
	"Do you want to avoid any intermediate stops?",
}

// Speaker phrases questions and answers. It remembers what it asked so the
// caller can route the next user answer. A Speaker is not safe for
// concurrent use.
type Speaker struct {
	rng   *rand.Rand
	asked map[string]int
	last  *dialogue.Field
}

// NewSpeaker creates a Speaker drawing its phrasing from rng. A nil rng uses
// a randomly seeded source.
func NewSpeaker(rng *rand.Rand) *Speaker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Speaker{rng: rng, asked: make(map[string]int)}
}

func (s *Speaker) pick(choices []string) string {
	return choices[s.rng.IntN(len(choices))]
}

func (s *Speaker) Greeting(name string) []string {
	if name == "" {
		name = "there"
	}
	return []string{
		fmt.Sprintf("Hello %s!", name),
		"I'm your personal assistant to help you find the best flight 😊",
	}
}

// Ask phrases a question for field. A nil field means no question is left.
func (s *Speaker) Ask(field *dialogue.Field) string {
	if field == nil {
		return s.pick(apologies) + " I couldn't come up with another question."
	}
	s.asked[field.Name()]++
	s.last = field

	if field.Name() == "NonStop" {
		return s.pick(nonStopQuestions)
	}
	p, ok := fieldPhrasings[field.Name()]
	if !ok {
		p = phrasing{what: strings.ToLower(field.Name())}
	}
	choices := make([]string, 0, len(genericQuestions)+len(p.extra))
	for _, g := range genericQuestions {
		choices = append(choices, fmt.Sprintf(g, p.what))
	}
	return s.pick(append(choices, p.extra...))
}

// Inform acknowledges an answer. count is the number of possible flights,
// zero while more information is needed.
func (s *Speaker) Inform(count int) string {
	head := capitalize(s.pick(thanks)) + "! "
	if count <= 0 {
		return head + s.pick([]string{
			"Now, before I can show you some flights I need more information.",
			"Let me gather some more information until I can show you some flights.",
		})
	}
	return head + fmt.Sprintf(s.pick([]string{
		"I found %d flights so far matching your query.",
		"Now we have %d flights.",
		"My database gives us %d flights. Sounds great, doesn't it? 😎 Let's proceed...",
	}), count)
}

// Confirm echoes back a value the session is not sure about.
func (s *Speaker) Confirm(value string) string {
	return fmt.Sprintf("I assume you mean %s. Tell me if that's wrong.", value)
}

// Error reports a problem raised while handling an answer.
func (s *Speaker) Error(problem string) string {
	return s.pick(apologies) + fmt.Sprintf(" I got a problem from my manager. He said %q.", problem)
}

func (s *Speaker) Progress(what string) string {
	return fmt.Sprintf("Please wait while I am %s...", what)
}

// Flights lists up to MaxShown flights after a header line.
func (s *Speaker) Flights(fs []flights.Flight) []string {
	switch {
	case len(fs) == 0:
		return []string{"Sorry, I couldn't find any flights matching your query."}
	case len(fs) <= MaxShown:
		lines := []string{fmt.Sprintf("Here are the %d flights I could find:", len(fs))}
		for _, f := range fs {
			lines = append(lines, flights.Stringify(f))
		}
		return lines
	default:
		lines := []string{fmt.Sprintf("I found %d flights in total but I will only show the first %d flights:", len(fs), MaxShown)}
		for _, f := range fs[:MaxShown] {
			lines = append(lines, flights.Stringify(f))
		}
		return lines
	}
}

// Asked returns how often the named field has been asked for.
func (s *Speaker) Asked(name string) int {
	return s.asked[name]
}

// LastQuestion returns the field most recently asked for, or nil.
func (s *Speaker) LastQuestion() *dialogue.Field {
	return s.last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
