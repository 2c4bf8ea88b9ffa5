package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/airport"
	"github.com/Harshitk-cp/skybot/internal/dialogue"
	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/flights"
	"github.com/Harshitk-cp/skybot/internal/metrics"
	"github.com/Harshitk-cp/skybot/internal/nlg"
)

// Field names the session routes extracted slots to.
const (
	FieldOrigin        = "Origin"
	FieldDestination   = "Destination"
	FieldDepartureDate = "DepartureDate"
	FieldNonStop       = "NonStop"
	FieldCabin         = "Cabin"
)

const (
	// maxAirportCandidates bounds how many resolved airports one answer carries.
	maxAirportCandidates = 3
	// decisiveMargin is how far the top candidate must lead the runner-up
	// before the value is taken without echoing it back.
	decisiveMargin = 0.2
)

var iataCode = regexp.MustCompile(`^[A-Z]{3}$`)

// SessionConfig holds what every new session is built from.
type SessionConfig struct {
	Fields    []*dialogue.Field
	Minimal   []string
	Database  domain.Database
	MaxData   int
	Extractor domain.Extractor
	// Airports is optional; without it place names are used verbatim.
	Airports domain.AirportResolver
	// Turns is optional; without it turns live only in memory.
	Turns domain.TurnStore
	// NewRand seeds each session's phrasing. Nil uses a random seed.
	NewRand func() *rand.Rand
	// UserName is used in the greeting.
	UserName string
}

// SessionState is a read-only snapshot of a conversation.
type SessionState struct {
	ID        uuid.UUID        `json:"id"`
	State     dialogue.State   `json:"state"`
	UserState domain.UserState `json:"user_state"`
	Possible  int              `json:"possible"`
	Questions int              `json:"questions"`
	Accuracy  *float64         `json:"accuracy,omitempty"`
}

// Session is one user's conversation. All methods are serialised by an
// internal mutex.
type Session struct {
	ID uuid.UUID

	mu        sync.Mutex
	manager   *dialogue.Manager
	speaker   *nlg.Speaker
	extractor domain.Extractor
	airports  domain.AirportResolver
	turns     domain.TurnStore
	userName  string
	logger    *zap.Logger

	persisted    int
	lastInformed string
	ratings      int
	positive     int
	lastActive   time.Time
	now          func() time.Time
}

func newSession(id uuid.UUID, cfg SessionConfig, logger *zap.Logger) (*Session, error) {
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("session: extractor is required")
	}
	logger = logger.With(zap.String("session_id", id.String()))

	manager, err := dialogue.New(dialogue.Config{
		Fields:   cfg.Fields,
		Minimal:  cfg.Minimal,
		Database: cfg.Database,
		MaxData:  cfg.MaxData,
		Logger:   logger,
		Progress: func(combination int, query map[string]string) {
			logger.Debug("querying flight database", zap.Int("combination", combination), zap.Any("query", query))
		},
		OnTurn: func(t domain.DialogueTurn) {
			if t.Kind == domain.TurnQuestion && t.Attribute != "" {
				metrics.QuestionsTotal.WithLabelValues(t.Attribute).Inc()
			}
		},
	})
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if cfg.NewRand != nil {
		rng = cfg.NewRand()
	}

	return &Session{
		ID:         id,
		manager:    manager,
		speaker:    nlg.NewSpeaker(rng),
		extractor:  cfg.Extractor,
		airports:   cfg.Airports,
		turns:      cfg.Turns,
		userName:   cfg.UserName,
		logger:     logger,
		lastActive: time.Now(),
		now:        time.Now,
	}, nil
}

// Start greets the user and asks the first question.
func (s *Session) Start(ctx context.Context) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	events := []domain.Event{domain.NewEvent(domain.EventGreeting, s.speaker.Greeting(s.userName)...)}
	events = append(events, s.next()...)
	s.flushTurns(ctx)
	return events
}

type slot struct {
	field  string
	values domain.Candidates
	// raw is the user's wording, shown when the slot cannot be used.
	raw string
}

// Step handles one user utterance and returns the events to emit, in order.
func (s *Session) Step(ctx context.Context, utterance string) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	info := s.extractor.ExtractInfo(utterance)
	asked := s.speaker.LastQuestion()

	var events []domain.Event
	slots := s.slots(info, asked)

	answered := false
	for _, sl := range slots {
		isAsked := asked != nil && sl.field == asked.Name()

		values := sl.values
		if values == nil && sl.raw != "" {
			events = append(events, domain.NewEvent(domain.EventProgress, s.speaker.Progress("resolving the airport "+sl.raw)))
			values = s.resolveAirport(sl.raw)
		}
		if len(values) == 0 {
			if isAsked {
				s.reject(asked.Name())
				events = append(events, domain.NewEvent(domain.EventError,
					s.speaker.Error(fmt.Sprintf("I don't know an airport called %s", sl.raw))))
				answered = true
			}
			continue
		}

		events = append(events, domain.NewEvent(domain.EventProgress, s.speaker.Progress("querying the flight database")))
		upd, err := s.manager.Inform(ctx, sl.field, values)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			metrics.InformsTotal.WithLabelValues(sl.field, "interrupted").Inc()
			s.logger.Info("answer interrupted", zap.String("field", sl.field), zap.Error(err))
			events = append(events, domain.NewEvent(domain.EventError, s.speaker.Error("the flight search was interrupted")))
			answered = true
			break
		}
		if err != nil {
			metrics.InformsTotal.WithLabelValues(sl.field, "rejected").Inc()
			s.logger.Info("answer rejected", zap.String("field", sl.field), zap.Error(err))
			events = append(events, domain.NewEvent(domain.EventError, s.speaker.Error(err.Error())))
			if isAsked {
				s.reject(sl.field)
				answered = true
			}
			continue
		}

		metrics.InformsTotal.WithLabelValues(sl.field, "accepted").Inc()
		observeUpdate(upd)
		s.lastInformed = sl.field
		events = append(events, domain.NewEvent(domain.EventFeedback, s.speaker.Inform(upd.Count)))

		sorted := values.Sorted()
		behavior := domain.GetLevelBehavior(domain.ComputeLevel(sorted[0].Confidence))
		if behavior.Confirm || !sorted.Decisive(decisiveMargin) {
			events = append(events, domain.NewEvent(domain.EventFeedback, s.speaker.Confirm(sorted[0].Value)))
		}
		if isAsked {
			if behavior.Reinforce {
				_ = s.manager.Feedback(sl.field, true)
			}
			answered = true
		}
	}

	if asked != nil && !answered {
		s.reject(asked.Name())
		events = append(events, domain.NewEvent(domain.EventError,
			s.speaker.Error(fmt.Sprintf("I could not find your %s in that answer", strings.ToLower(asked.Name())))))
	}

	events = append(events, domain.Event{Type: domain.EventState, State: s.manager.UserState()})
	events = append(events, s.next()...)
	s.flushTurns(ctx)
	return events
}

// RateStateUpdate records the user's verdict on the last state update and
// returns the running accuracy.
func (s *Session) RateStateUpdate(ctx context.Context, positive bool) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.lastInformed != "" {
		_ = s.manager.Feedback(s.lastInformed, positive)
	}
	s.ratings++
	if positive {
		s.positive++
	}
	s.flushTurns(ctx)

	acc := s.accuracy()
	return domain.Event{Type: domain.EventAccuracy, Accuracy: acc}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionState{
		ID:        s.ID,
		State:     s.manager.State(),
		UserState: s.manager.UserState(),
		Possible:  len(s.manager.PossibleData()),
		Questions: s.manager.Questions(),
		Accuracy:  s.accuracy(),
	}
}

// Turns returns the conversation log, from the turn store when one is
// configured.
func (s *Session) Turns(ctx context.Context) ([]domain.DialogueTurn, error) {
	if s.turns != nil {
		return s.turns.ListBySession(ctx, s.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.manager.Turns()
	for i := range turns {
		turns[i].SessionID = s.ID
	}
	return turns, nil
}

// IdleSince reports when the session last handled a request.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.lastActive = s.now()
}

func (s *Session) accuracy() *float64 {
	if s.ratings == 0 {
		return nil
	}
	acc := float64(s.positive) / float64(s.ratings)
	return &acc
}

func (s *Session) reject(field string) {
	_ = s.manager.Feedback(field, false)
}

// next decides between finishing and asking another question.
func (s *Session) next() []domain.Event {
	if s.manager.State() == dialogue.StateResolved {
		return []domain.Event{domain.NewEvent(domain.EventFinish, s.speaker.Flights(s.possibleFlights())...)}
	}
	field, _ := s.manager.NextQuestion()
	if field == nil {
		return []domain.Event{
			domain.NewEvent(domain.EventError, s.speaker.Ask(nil)),
			domain.NewEvent(domain.EventFinish, s.speaker.Flights(s.possibleFlights())...),
		}
	}
	return []domain.Event{domain.NewEvent(domain.EventQuestion, s.speaker.Ask(field))}
}

func (s *Session) possibleFlights() []flights.Flight {
	records := s.manager.PossibleData()
	out := make([]flights.Flight, 0, len(records))
	for _, r := range records {
		f, err := flights.FromRecord(r)
		if err != nil {
			s.logger.Warn("skipping undecodable flight", zap.Error(err))
			continue
		}
		out = append(out, f)
	}
	return out
}

// slots maps extracted information onto fields. The slot answering the last
// question comes first.
func (s *Session) slots(info domain.Info, asked *dialogue.Field) []slot {
	var out []slot
	add := func(sl slot) {
		if _, ok := s.manager.Field(sl.field); !ok {
			return
		}
		for _, existing := range out {
			if existing.field == sl.field {
				return
			}
		}
		out = append(out, sl)
	}

	if info.Origin != "" {
		add(s.locationSlot(FieldOrigin, info.Origin))
	}
	if info.Destination != "" {
		add(s.locationSlot(FieldDestination, info.Destination))
	}
	for _, loc := range info.Locations {
		target := s.undirectedTarget(asked, out)
		if target == "" {
			break
		}
		add(s.locationSlot(target, loc))
	}
	if len(info.Dates) > 0 {
		var values domain.Candidates
		for _, d := range info.Dates {
			values = append(values, domain.Candidate{Value: d, Confidence: 1})
		}
		add(slot{field: FieldDepartureDate, values: values})
	}
	if info.Cabin != "" {
		add(slot{field: FieldCabin, values: domain.Single(info.Cabin)})
	}

	if asked != nil {
		switch {
		case asked.Name() == FieldNonStop && info.DialogAct == domain.ActYes:
			add(slot{field: FieldNonStop, values: domain.Single("yes")})
		case asked.Name() == FieldNonStop && info.DialogAct == domain.ActNo:
			add(slot{field: FieldNonStop, values: domain.Single("no")})
		case asked.Kind() == dialogue.Numeric && len(info.Numbers) > 0:
			var values domain.Candidates
			for _, n := range info.Numbers {
				values = append(values, domain.Candidate{Value: strconv.Itoa(n), Confidence: 1})
			}
			add(slot{field: asked.Name(), values: values})
		}
	}

	if asked != nil {
		for i, sl := range out {
			if sl.field == asked.Name() && i > 0 {
				out[0], out[i] = out[i], out[0]
				break
			}
		}
	}
	return out
}

// undirectedTarget picks the location field a place without a direction
// answers: the asked one, else the first unset of destination and origin.
func (s *Session) undirectedTarget(asked *dialogue.Field, taken []slot) string {
	isTaken := func(name string) bool {
		for _, sl := range taken {
			if sl.field == name {
				return true
			}
		}
		_, set := s.manager.UserState()[name]
		return set
	}
	if asked != nil && (asked.Name() == FieldOrigin || asked.Name() == FieldDestination) && !isTaken(asked.Name()) {
		return asked.Name()
	}
	for _, name := range []string{FieldDestination, FieldOrigin} {
		if !isTaken(name) {
			return name
		}
	}
	return ""
}

// locationSlot keeps IATA codes as they are and defers place names to the
// airport resolver.
func (s *Session) locationSlot(field, place string) slot {
	if iataCode.MatchString(place) {
		return slot{field: field, values: domain.Single(place), raw: place}
	}
	return slot{field: field, raw: place}
}

func (s *Session) resolveAirport(place string) domain.Candidates {
	if s.airports == nil {
		return domain.Single(strings.ToUpper(place))
	}
	return airport.Candidates(s.airports.FindMatches(place), maxAirportCandidates)
}

// flushTurns persists turns appended since the last flush.
func (s *Session) flushTurns(ctx context.Context) {
	turns := s.manager.Turns()
	if s.turns == nil {
		s.persisted = len(turns)
		return
	}
	for ; s.persisted < len(turns); s.persisted++ {
		t := turns[s.persisted]
		t.SessionID = s.ID
		if err := s.turns.Append(ctx, &t); err != nil {
			s.logger.Error("failed to persist dialogue turn",
				zap.Int("seq", t.Seq),
				zap.String("kind", string(t.Kind)),
				zap.Error(err))
		}
	}
}

func observeUpdate(u dialogue.Update) {
	if !u.Ready {
		return
	}
	metrics.DatabaseQueriesTotal.WithLabelValues("ok").Add(float64(u.Queries - u.Failed))
	metrics.DatabaseQueriesTotal.WithLabelValues("failed").Add(float64(u.Failed))
	metrics.PossibleDataSize.Observe(float64(u.Count))
	if u.Truncated {
		metrics.ExpansionTruncationsTotal.Inc()
	}
}
