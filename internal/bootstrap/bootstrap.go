// Package bootstrap assembles a session configuration from the environment.
package bootstrap

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/airport"
	"github.com/Harshitk-cp/skybot/internal/config"
	"github.com/Harshitk-cp/skybot/internal/dialogue"
	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/flights"
	"github.com/Harshitk-cp/skybot/internal/nlu"
	"github.com/Harshitk-cp/skybot/internal/service"
	"github.com/Harshitk-cp/skybot/internal/store"
)

// SessionConfig builds what every session needs. db may be nil, in which
// case provider responses are cached in memory and turns are not persisted.
func SessionConfig(db *pgxpool.Pool, logger *zap.Logger) (service.SessionConfig, error) {
	set, err := config.LoadFields(config.FieldsPath(), config.PruneRatio(), config.PruneMax())
	if err != nil {
		return service.SessionConfig{}, err
	}

	database, err := Database(config.FlightsProvider(), set.Fields, db, logger)
	if err != nil {
		return service.SessionConfig{}, err
	}

	cfg := service.SessionConfig{
		Fields:    set.Fields,
		Minimal:   set.Minimal,
		Database:  database,
		MaxData:   config.MaxData(),
		Extractor: nlu.NewKeywordExtractor(),
		UserName:  config.UserName(),
	}

	resolver, err := airport.Load(config.AirportsPath())
	if err != nil {
		logger.Warn("airport resolver disabled", zap.Error(err))
	} else {
		logger.Info("airports loaded", zap.Int("count", resolver.Len()))
		cfg.Airports = resolver
	}

	if db != nil {
		cfg.Turns = store.NewTurnStore(db)
	}
	return cfg, nil
}

// Database selects the flight source by provider name.
func Database(provider string, fields []*dialogue.Field, db *pgxpool.Pool, logger *zap.Logger) (domain.Database, error) {
	switch provider {
	case "dataset":
		ds, err := flights.LoadDataset(config.FlightsDatasetPath(), fields)
		if err != nil {
			return nil, err
		}
		logger.Info("flight dataset loaded", zap.Int("flights", ds.Len()))
		return ds, nil
	case "qpx":
		var cache domain.FlightCache
		if db != nil {
			cache = store.NewFlightCacheStore(db)
		}
		client, err := flights.NewClient(config.QPXAPIKey(), config.QPXBaseURL(), cache, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("flight search provider configured", zap.String("provider", provider))
		return flights.NewQPXDatabase(client, fields, flights.DefaultSliceFields, logger), nil
	default:
		return nil, fmt.Errorf("unknown flights provider %q", provider)
	}
}
