package relation

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// relationship is the mutable record held by the store. Exactly one
// exists per canonical pair; only the interaction engine mutates it,
// inside its pair-lock critical section.
type relationship struct {
	pair             Pair
	metrics          Metrics
	interactionCount int
	lastInteraction  time.Time
}

// Store holds one relationship per unordered character pair. Records
// are created lazily at the neutral midpoint and never deleted here;
// removal is an administrative action outside the engine.
type Store struct {
	relationships map[Pair]*relationship
	mu            sync.RWMutex
	logger        *zap.Logger
}

// NewStore creates an empty relationship store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		relationships: make(map[Pair]*relationship),
		logger:        logger,
	}
}

// Snapshot returns an immutable copy of the relationship for the pair,
// creating a neutral record first if none exists.
func (s *Store) Snapshot(p Pair) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(p).snapshot()
}

// Peek returns the relationship snapshot without creating a record.
func (s *Store) Peek(p Pair) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.relationships[p]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshot(), true
}

// ApplyDelta mutates the pair's relationship, clamping every metric to
// its bounds, and returns the resulting snapshot. at becomes the
// record's last-interaction timestamp.
func (s *Store) ApplyDelta(p Pair, d Delta, at time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.getOrCreate(p)
	r.metrics.Affinity = clamp(r.metrics.Affinity + d.Affinity)
	r.metrics.Trust = clamp(r.metrics.Trust + d.Trust)
	r.metrics.Rivalry = clamp(r.metrics.Rivalry + d.Rivalry)
	r.interactionCount++
	r.lastInteraction = at

	s.logger.Debug("relationship updated",
		zap.String("a", p.A),
		zap.String("b", p.B),
		zap.Float64("affinity", r.metrics.Affinity),
		zap.Float64("trust", r.metrics.Trust),
		zap.Float64("rivalry", r.metrics.Rivalry))
	return r.snapshot()
}

// Restore overwrites the pair's record with a previously taken
// snapshot. The engine uses it to roll back a failed persistence.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships[snap.Pair] = &relationship{
		pair:             snap.Pair,
		metrics:          snap.Metrics,
		interactionCount: snap.InteractionCount,
		lastInteraction:  snap.LastInteraction,
	}
}

// Load seeds the store with a persisted snapshot, replacing any
// in-memory record for the pair.
func (s *Store) Load(snap Snapshot) {
	s.Restore(snap)
}

// Count returns the number of tracked relationships.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relationships)
}

// getOrCreate returns or initializes a record (caller must hold lock).
func (s *Store) getOrCreate(p Pair) *relationship {
	r, ok := s.relationships[p]
	if !ok {
		r = &relationship{pair: p, metrics: NeutralMetrics()}
		s.relationships[p] = r
	}
	return r
}

func (r *relationship) snapshot() Snapshot {
	return Snapshot{
		Pair:             r.pair,
		Metrics:          r.metrics,
		InteractionCount: r.interactionCount,
		LastInteraction:  r.lastInteraction,
	}
}
