package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

type TurnStore struct {
	db *pgxpool.Pool
}

func NewTurnStore(db *pgxpool.Pool) *TurnStore {
	return &TurnStore{db: db}
}

func (s *TurnStore) Append(ctx context.Context, t *domain.DialogueTurn) error {
	if !domain.ValidTurnKind(string(t.Kind)) {
		return fmt.Errorf("append turn: unknown kind %q", t.Kind)
	}
	var candidates []byte
	if len(t.Values) > 0 {
		b, err := json.Marshal(t.Values)
		if err != nil {
			return fmt.Errorf("encode candidates: %w", err)
		}
		candidates = b
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO dialogue_turns (session_id, seq, kind, attribute, candidates, positive, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		t.SessionID, t.Seq, t.Kind, t.Attribute, candidates, t.Positive, t.CreatedAt,
	).Scan(&t.ID)
}

func (s *TurnStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.DialogueTurn, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, seq, kind, attribute, candidates, positive, created_at
		 FROM dialogue_turns WHERE session_id = $1
		 ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.DialogueTurn
	for rows.Next() {
		var (
			t          domain.DialogueTurn
			candidates []byte
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Seq, &t.Kind, &t.Attribute, &candidates, &t.Positive, &t.CreatedAt); err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			if err := json.Unmarshal(candidates, &t.Values); err != nil {
				return nil, fmt.Errorf("decode candidates: %w", err)
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
