package domain

import (
	"time"

	"github.com/google/uuid"
)

type TurnKind string

const (
	TurnQuestion TurnKind = "question"
	TurnAnswer   TurnKind = "answer"
	TurnFeedback TurnKind = "feedback"
)

func ValidTurnKind(k string) bool {
	switch TurnKind(k) {
	case TurnQuestion, TurnAnswer, TurnFeedback:
		return true
	}
	return false
}

// DialogueTurn is one entry of the append-only conversation log.
// Values is set for answers, Positive for feedback.
type DialogueTurn struct {
	ID        uuid.UUID  `json:"id"`
	SessionID uuid.UUID  `json:"session_id"`
	Seq       int        `json:"seq"`
	Kind      TurnKind   `json:"kind"`
	Attribute string     `json:"attribute"`
	Values    Candidates `json:"values,omitempty"`
	Positive  *bool      `json:"positive,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
