package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

func TestTurnStore_AppendRejectsUnknownKind(t *testing.T) {
	s := NewTurnStore(nil)
	err := s.Append(context.Background(), &domain.DialogueTurn{Kind: domain.TurnKind("chitchat")})
	assert.ErrorContains(t, err, "unknown kind")
}

func TestSchemaDeclaresTables(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS dialogue_turns")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS flight_cache")
}
