package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/metrics"
)

const (
	defaultIdleTimeout    = 30 * time.Minute
	defaultReaperInterval = 1 * time.Minute
)

// Registry owns the open sessions and closes those left idle.
type Registry struct {
	cfg    SessionConfig
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	closed   bool

	idleTimeout time.Duration
	interval    time.Duration
	now         func() time.Time
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func NewRegistry(cfg SessionConfig, idleTimeout time.Duration, logger *zap.Logger) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		cfg:         cfg,
		logger:      logger,
		sessions:    make(map[uuid.UUID]*Session),
		idleTimeout: idleTimeout,
		interval:    defaultReaperInterval,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

func (r *Registry) SetInterval(d time.Duration) {
	r.interval = d
}

// Create opens a new session and returns it with its opening events.
func (r *Registry) Create(ctx context.Context) (*Session, []domain.Event, error) {
	s, err := newSession(uuid.New(), r.cfg, r.logger)
	if err != nil {
		return nil, nil, err
	}
	s.now = r.now
	s.lastActive = r.now()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, nil, ErrRegistryClosed
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	metrics.ActiveSessions.Inc()
	r.logger.Info("session opened", zap.String("session_id", s.ID.String()))
	return s, s.Start(ctx), nil
}

func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	metrics.ActiveSessions.Dec()
	r.logger.Info("session closed", zap.String("session_id", id.String()))
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Start runs the idle-session reaper in a background goroutine.
func (r *Registry) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Info("session reaper started",
			zap.Duration("interval", r.interval),
			zap.Duration("idle_timeout", r.idleTimeout))

		for {
			select {
			case <-ticker.C:
				r.reap()
			case <-r.stopCh:
				r.logger.Info("session reaper stopped")
				return
			}
		}
	}()
}

// Stop halts the reaper and refuses new sessions. Calling it again is a no-op.
func (r *Registry) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()
}

func (r *Registry) reap() int {
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.RLock()
	var idle []uuid.UUID
	for id, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	removed := 0
	for _, id := range idle {
		if err := r.Remove(id); err == nil {
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("closed idle sessions", zap.Int("count", removed))
	}
	return removed
}
