package court

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry owns the live sessions. Its lock guards only the map; each
// coordinator is locked by its own calls after the lookup returns.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Coordinator

	agents Agents
	store  Store
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithSessionStore persists every session to s and reloads sessions that are
// not held in memory.
func WithSessionStore(s Store) RegistryOption {
	return func(r *Registry) { r.store = s }
}

// WithTTL sets how long a session may stay idle before EvictIdle drops it.
// Zero disables eviction.
func WithTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.ttl = ttl }
}

// WithRegistryClock replaces time.Now for the registry and its sessions
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator replaces the uuid session id generator
func WithIDGenerator(f func() string) RegistryOption {
	return func(r *Registry) { r.newID = f }
}

// NewRegistry returns an empty registry whose sessions speak through agents
func NewRegistry(agents Agents, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Coordinator),
		agents:   agents,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) coordinatorOptions() []CoordinatorOption {
	opts := []CoordinatorOption{WithClock(r.now)}
	if r.store != nil {
		opts = append(opts, WithStore(r.store))
	}
	return opts
}

// Start creates a session for facts and returns its id
func (r *Registry) Start(ctx context.Context, facts CaseFacts) (string, error) {
	if err := facts.Validate(); err != nil {
		return "", err
	}

	id := r.newID()
	c := NewCoordinator(id, r.agents, r.coordinatorOptions()...)
	if err := c.Start(ctx, facts); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.sessions[id] = c
	r.mu.Unlock()

	zap.S().Infow("trial started",
		"session", id,
		"case", facts.CaseTitle,
		"userRole", facts.UserRole.String())
	return id, nil
}

// Get returns the coordinator for id, reloading it from the store when it is
// not held in memory.
func (r *Registry) Get(ctx context.Context, id string) (*Coordinator, error) {
	r.mu.RLock()
	c, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}
	if r.store == nil {
		return nil, ErrSessionNotFound
	}

	rec, err := r.store.Load(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	restored, err := RestoreCoordinator(*rec, r.agents, r.coordinatorOptions()...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another caller may have restored it while the store was read
	if existing, ok := r.sessions[id]; ok {
		return existing, nil
	}
	r.sessions[id] = restored
	zap.S().Infow("session restored from store", "session", id, "stage", rec.CurrentStage.String())
	return restored, nil
}

// SubmitEvidence adds evidence to session id
func (r *Registry) SubmitEvidence(ctx context.Context, id string, e Evidence) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.SubmitEvidence(ctx, e)
}

// Advance runs session id forward
func (r *Registry) Advance(ctx context.Context, id, input string) (StepResult, error) {
	return r.AdvanceStream(ctx, id, input, nil)
}

// AdvanceStream runs session id forward, reporting each line to onLine
func (r *Registry) AdvanceStream(ctx context.Context, id, input string, onLine func(Line)) (StepResult, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return StepResult{}, err
	}
	return c.AdvanceStream(ctx, input, onLine)
}

// Snapshot returns the state of session id
func (r *Registry) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return c.Snapshot()
}

// Close ends session id and deletes its stored record. An advance already
// running on the session finishes, but its lines are not saved and the session
// stays gone.
func (r *Registry) Close(ctx context.Context, id string) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	c.markClosed()

	r.mu.Lock()
	if r.sessions[id] == c {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	zap.S().Infow("session closed", "session", id)
	return nil
}

// EvictIdle drops every session idle for longer than the TTL and returns how
// many were dropped. Session locks are never taken, so a trial that is busy
// generating is not blocked on.
func (r *Registry) EvictIdle(ctx context.Context, now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-r.ttl)

	var expired []string
	r.mu.Lock()
	for id, c := range r.sessions {
		if c.LastActive().Before(cutoff) {
			c.markClosed()
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		if r.store == nil {
			continue
		}
		if err := r.store.Delete(ctx, id); err != nil {
			zap.S().Warnw("failed to delete evicted session", "session", id, "error", err)
		}
	}
	if len(expired) > 0 {
		zap.S().Infow("evicted idle sessions", "count", len(expired), "ttl", r.ttl.String())
	}
	return len(expired)
}

// Len returns the number of sessions held in memory
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StoredCount returns the number of sessions in the store. Without a store,
// or with one that cannot count, it falls back to the sessions in memory.
func (r *Registry) StoredCount(ctx context.Context) (int, error) {
	counter, ok := r.store.(Counter)
	if !ok {
		return r.Len(), nil
	}
	return counter.Count(ctx)
}
