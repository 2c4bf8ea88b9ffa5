package domain

type ConfidenceLevel string

const (
	LevelCertain  ConfidenceLevel = "certain"
	LevelLikely   ConfidenceLevel = "likely"
	LevelPossible ConfidenceLevel = "possible"
	LevelDoubtful ConfidenceLevel = "doubtful"
)

func ComputeLevel(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.95:
		return LevelCertain
	case confidence > 0.70:
		return LevelLikely
	case confidence > 0.40:
		return LevelPossible
	default:
		return LevelDoubtful
	}
}

// LevelBehavior says how a session treats an answer of a given level.
type LevelBehavior struct {
	Level ConfidenceLevel
	// Confirm asks the speaker to echo the value back ("You probably mean ...").
	Confirm bool
	// Reinforce feeds positive field feedback when the value is accepted.
	Reinforce bool
}

var LevelBehaviors = map[ConfidenceLevel]LevelBehavior{
	LevelCertain:  {Level: LevelCertain, Confirm: false, Reinforce: true},
	LevelLikely:   {Level: LevelLikely, Confirm: true, Reinforce: true},
	LevelPossible: {Level: LevelPossible, Confirm: true, Reinforce: false},
	LevelDoubtful: {Level: LevelDoubtful, Confirm: true, Reinforce: false},
}

func GetLevelBehavior(level ConfidenceLevel) LevelBehavior {
	if b, ok := LevelBehaviors[level]; ok {
		return b
	}
	return LevelBehaviors[LevelDoubtful]
}

// Decisive reports whether the top candidate clearly beats the runner-up.
// A single candidate is always decisive.
func (cs Candidates) Decisive(margin float64) bool {
	if len(cs) == 0 {
		return false
	}
	if len(cs) == 1 {
		return true
	}
	return cs[0].Confidence-cs[1].Confidence > margin
}
