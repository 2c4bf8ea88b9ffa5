package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FlightCacheStore keeps raw provider responses keyed by request hash.
type FlightCacheStore struct {
	db *pgxpool.Pool
}

func NewFlightCacheStore(db *pgxpool.Pool) *FlightCacheStore {
	return &FlightCacheStore{db: db}
}

func (s *FlightCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	var response []byte
	err := s.db.QueryRow(ctx,
		`UPDATE flight_cache SET hits = hits + 1, updated_at = NOW()
		 WHERE cache_key = $1
		 RETURNING response`,
		key,
	).Scan(&response)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return response, nil
}

func (s *FlightCacheStore) Put(ctx context.Context, key string, request, response []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO flight_cache (cache_key, request, response)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (cache_key) DO UPDATE
		 SET request = EXCLUDED.request, response = EXCLUDED.response, updated_at = NOW()`,
		key, request, response,
	)
	return err
}
