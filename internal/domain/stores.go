package domain

import (
	"context"

	"github.com/google/uuid"
)

// Database answers concrete attribute-to-value queries against a fixed snapshot.
type Database interface {
	Query(ctx context.Context, query map[string]string) ([]Record, error)
}

// FlightCache stores raw provider responses keyed by canonical request hash.
type FlightCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, request, response []byte) error
}

type TurnStore interface {
	Append(ctx context.Context, t *DialogueTurn) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]DialogueTurn, error)
}

type AirportResolver interface {
	FindMatches(text string) []AirportMatch
}

type Extractor interface {
	ExtractInfo(utterance string) Info
}
