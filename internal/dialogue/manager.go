package dialogue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

// MaxData caps how many records an update collects before expansion stops.
const MaxData = 2500

const entropyFloor = 1e-10

// State is the phase of a conversation.
type State string

const (
	StateCollecting State = "collecting"
	StateRefining   State = "refining"
	StateResolved   State = "resolved"
	StateExhausted  State = "exhausted"
)

// Progress is called once per database query issued while expanding answers.
type Progress func(combination int, query map[string]string)

// Config bootstraps a Manager.
type Config struct {
	// Fields in question order. The first field is never chosen by entropy.
	Fields []*Field
	// Minimal names the fields required before any query is issued.
	Minimal  []string
	Database domain.Database
	MaxData  int
	Logger   *zap.Logger
	Progress Progress
	// OnTurn observes every appended dialogue turn.
	OnTurn func(domain.DialogueTurn)
}

// Update reports the outcome of recomputing the candidate set.
type Update struct {
	// Ready is false while minimal fields are missing; Count is then meaningless.
	Ready     bool `json:"ready"`
	Count     int  `json:"count"`
	Queries   int  `json:"queries"`
	Failed    int  `json:"failed"`
	Truncated bool `json:"truncated"`
}

// Manager tracks one conversation. It is not safe for concurrent use; a
// session owns exactly one Manager.
type Manager struct {
	fields   []*Field
	byName   map[string]*Field
	minimal  []string
	minSet   map[string]bool
	db       domain.Database
	maxData  int
	logger   *zap.Logger
	progress Progress
	onTurn   func(domain.DialogueTurn)
	now      func() time.Time

	userState domain.UserState
	scores    map[string]float64
	possible  []domain.Record
	turns     []domain.DialogueTurn
	questions int
	exhausted bool
}

func New(cfg Config) (*Manager, error) {
	if len(cfg.Fields) == 0 {
		return nil, fmt.Errorf("dialogue: at least one field is required")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("dialogue: database is required")
	}

	m := &Manager{
		byName:    make(map[string]*Field, len(cfg.Fields)),
		minSet:    make(map[string]bool, len(cfg.Minimal)),
		db:        cfg.Database,
		maxData:   cfg.MaxData,
		logger:    cfg.Logger,
		progress:  cfg.Progress,
		onTurn:    cfg.OnTurn,
		now:       time.Now,
		userState: make(domain.UserState),
		scores:    make(map[string]float64, len(cfg.Fields)),
	}
	if m.maxData <= 0 {
		m.maxData = MaxData
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	for _, f := range cfg.Fields {
		if _, dup := m.byName[f.Name()]; dup {
			return nil, fmt.Errorf("dialogue: duplicate field %q", f.Name())
		}
		m.fields = append(m.fields, f)
		m.byName[f.Name()] = f
		m.scores[f.Name()] = 1.0
	}
	for _, name := range cfg.Minimal {
		if _, ok := m.byName[name]; !ok {
			return nil, fmt.Errorf("dialogue: minimal field %q: %w", name, ErrUnknownField)
		}
		m.minimal = append(m.minimal, name)
		m.minSet[name] = true
	}
	return m, nil
}

// Sufficient reports whether every minimal field has a value.
func (m *Manager) Sufficient() bool {
	for _, name := range m.minimal {
		if _, ok := m.userState[name]; !ok {
			return false
		}
	}
	return true
}

func (m *Manager) State() State {
	switch {
	case !m.Sufficient():
		return StateCollecting
	case m.exhausted:
		return StateExhausted
	case len(m.possible) <= 1:
		return StateResolved
	default:
		return StateRefining
	}
}

// NextQuestion picks the field to ask about. While minimal fields are missing
// it returns the first missing one with nil counts. Afterwards it returns the
// unanswered non-minimal field (never the first configured one) with the
// smallest entropy above zero over the candidate set, and that field's
// category counts. A nil field means no informative question remains.
func (m *Manager) NextQuestion() (*Field, map[string]int) {
	m.questions++

	for _, name := range m.minimal {
		if _, ok := m.userState[name]; !ok {
			m.appendTurn(domain.DialogueTurn{Kind: domain.TurnQuestion, Attribute: name})
			return m.byName[name], nil
		}
	}

	var best *Field
	bestEntropy := 0.0
	for _, f := range m.fields[1:] {
		if m.minSet[f.Name()] {
			continue
		}
		if _, answered := m.userState[f.Name()]; answered {
			continue
		}
		e := f.Entropy(m.possible)
		if e > entropyFloor && (best == nil || e < bestEntropy) {
			best, bestEntropy = f, e
		}
	}

	if best == nil {
		m.exhausted = true
		m.appendTurn(domain.DialogueTurn{Kind: domain.TurnQuestion})
		m.logger.Debug("no informative question left", zap.Int("possible", len(m.possible)))
		return nil, nil
	}

	m.appendTurn(domain.DialogueTurn{Kind: domain.TurnQuestion, Attribute: best.Name()})
	m.logger.Debug("selected question",
		zap.String("field", best.Name()),
		zap.Float64("entropy", bestEntropy),
		zap.Int("possible", len(m.possible)))
	return best, best.CategoryCount(m.possible)
}

// Inform stores the user's ranked values for attribute and recomputes the
// candidate set. Rejected answers leave the state untouched.
func (m *Manager) Inform(ctx context.Context, attribute string, values domain.Candidates) (Update, error) {
	field, ok := m.byName[attribute]
	if !ok {
		return Update{}, fmt.Errorf("%w: %s", ErrUnknownField, attribute)
	}
	if len(values) == 0 {
		return Update{}, ErrEmptyAnswer
	}

	for _, v := range values {
		if !domain.ValidConfidence(v.Confidence) {
			return Update{}, fmt.Errorf("%w: %s=%q has confidence %v", ErrInvalidConfidence, attribute, v.Value, v.Confidence)
		}
	}

	values = values.Sorted()
	if len(values) > 1 {
		pruned, err := field.Prune(values)
		if err != nil {
			return Update{}, err
		}
		m.logger.Debug("pruned answer",
			zap.String("field", attribute),
			zap.Int("from", len(values)),
			zap.Int("to", len(pruned)))
		values = pruned
	}

	stored := make(domain.Candidates, len(values))
	copy(stored, values)
	previous, hadPrevious := m.userState[attribute]
	m.userState[attribute] = stored

	res, err := m.Update(ctx)
	if err != nil {
		if hadPrevious {
			m.userState[attribute] = previous
		} else {
			delete(m.userState, attribute)
		}
		return Update{}, err
	}
	m.exhausted = false
	m.appendTurn(domain.DialogueTurn{Kind: domain.TurnAnswer, Attribute: attribute, Values: stored})
	return res, nil
}

// Feedback reweights a field: ×1.1 when positive, ×0.9 otherwise.
func (m *Manager) Feedback(attribute string, positive bool) error {
	if _, ok := m.byName[attribute]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, attribute)
	}
	if positive {
		m.scores[attribute] *= 1.1
	} else {
		m.scores[attribute] *= 0.9
	}
	p := positive
	m.appendTurn(domain.DialogueTurn{Kind: domain.TurnFeedback, Attribute: attribute, Positive: &p})
	return nil
}

// Update recomputes the candidate set from scratch. Nothing is queried until
// the minimal fields are complete. When ctx ends before the expansion
// finishes, the previous candidate set is kept and ctx.Err() is returned.
func (m *Manager) Update(ctx context.Context) (Update, error) {
	if !m.Sufficient() {
		return Update{}, nil
	}

	possible, res, err := m.expand(ctx)
	if err != nil {
		m.logger.Info("candidate update interrupted",
			zap.Int("queries", res.Queries),
			zap.Error(err))
		return Update{}, err
	}
	m.possible = possible
	m.logger.Debug("updated candidate set",
		zap.Int("count", res.Count),
		zap.Int("queries", res.Queries),
		zap.Int("failed", res.Failed),
		zap.Bool("truncated", res.Truncated))
	return res, nil
}

// expand walks the cross product of informed values like an odometer,
// starting with every attribute at its most confident value and advancing
// the right-most cursor first. A failed query contributes no records.
func (m *Manager) expand(ctx context.Context) ([]domain.Record, Update, error) {
	attrs := m.informedAttributes()
	cursors := make([]int, len(attrs))
	possible := []domain.Record{}
	res := Update{Ready: true}

	for {
		if err := ctx.Err(); err != nil {
			return nil, res, err
		}

		query := make(map[string]string, len(attrs))
		for i, attr := range attrs {
			query[attr] = m.userState[attr][cursors[i]].Value
		}

		records, err := m.db.Query(ctx, query)
		res.Queries++
		if err != nil {
			res.Failed++
			m.logger.Warn("database query failed", zap.Any("query", query), zap.Error(err))
		} else {
			possible = append(possible, records...)
		}
		if m.progress != nil {
			m.progress(res.Queries, query)
		}

		if len(possible) > m.maxData {
			res.Truncated = true
			break
		}
		if !advance(cursors, func(i int) int { return len(m.userState[attrs[i]]) }) {
			break
		}
	}

	// A query cut short by ctx is not a failed query.
	if err := ctx.Err(); err != nil {
		return nil, res, err
	}
	res.Count = len(possible)
	return possible, res, nil
}

// advance moves the odometer one step and reports false once every
// combination has been visited.
func advance(cursors []int, size func(i int) int) bool {
	for i := len(cursors) - 1; i >= 0; i-- {
		cursors[i]++
		if cursors[i] < size(i) {
			return true
		}
		cursors[i] = 0
	}
	return false
}

// informedAttributes lists informed attribute names in configured field order.
func (m *Manager) informedAttributes() []string {
	attrs := make([]string, 0, len(m.userState))
	for _, f := range m.fields {
		if _, ok := m.userState[f.Name()]; ok {
			attrs = append(attrs, f.Name())
		}
	}
	return attrs
}

func (m *Manager) appendTurn(t domain.DialogueTurn) {
	t.Seq = len(m.turns)
	t.CreatedAt = m.now()
	m.turns = append(m.turns, t)
	if m.onTurn != nil {
		m.onTurn(t)
	}
}

// PossibleData returns the current candidate set; nil until the minimal
// fields are complete.
func (m *Manager) PossibleData() []domain.Record {
	return m.possible
}

func (m *Manager) UserState() domain.UserState {
	return m.userState.Clone()
}

// Score returns the session-local feedback weight of a field.
func (m *Manager) Score(name string) float64 {
	return m.scores[name]
}

func (m *Manager) Turns() []domain.DialogueTurn {
	return append([]domain.DialogueTurn(nil), m.turns...)
}

func (m *Manager) Questions() int {
	return m.questions
}

func (m *Manager) Field(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

func (m *Manager) Fields() []*Field {
	return append([]*Field(nil), m.fields...)
}

func (m *Manager) Minimal() []string {
	return append([]string(nil), m.minimal...)
}

func (m *Manager) IsMinimal(name string) bool {
	return m.minSet[name]
}
