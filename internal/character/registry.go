package character

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry is the in-memory character roster. Profiles and trait
// vectors are read-mostly; only social energy mutates, and only through
// the interaction engine's pair-lock discipline.
type Registry struct {
	characters map[string]*Character
	now        func() time.Time
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewRegistry creates a registry using the given clock. A nil clock
// means time.Now.
func NewRegistry(now func() time.Time, logger *zap.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		characters: make(map[string]*Character),
		now:        now,
		logger:     logger,
	}
}

// Register adds a character, assigning an id if missing and starting
// energy at full unless one was supplied.
func (r *Registry) Register(c *Character) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.SocialEnergy <= 0 || c.SocialEnergy > MaxEnergy {
		c.SocialEnergy = MaxEnergy
	}
	if c.Autonomy < 0 {
		c.Autonomy = 0
	} else if c.Autonomy > 1 {
		c.Autonomy = 1
	}
	now := r.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.characters[c.ID] = c

	r.logger.Info("registered character",
		zap.String("id", c.ID),
		zap.String("name", c.Name),
		zap.String("ecosystem", c.EcosystemID))
}

// Snapshot returns a read-only copy with energy regeneration applied.
func (r *Registry) Snapshot(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.characters[id]
	if !ok {
		return Snapshot{}, false
	}
	r.regen(c)
	return snapshotOf(c), true
}

// List returns snapshots of every character.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, len(r.characters))
	for _, c := range r.characters {
		r.regen(c)
		out = append(out, snapshotOf(c))
	}
	return out
}

// ListEcosystem returns snapshots of the characters in one ecosystem.
func (r *Registry) ListEcosystem(ecosystemID string) []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Snapshot
	for _, c := range r.characters {
		if c.EcosystemID == ecosystemID {
			r.regen(c)
			out = append(out, snapshotOf(c))
		}
	}
	return out
}

// DebitEnergy subtracts cost from the character's social energy,
// flooring at zero, and returns the new level.
func (r *Registry) DebitEnergy(id string, cost float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.characters[id]
	if !ok {
		return 0
	}
	r.regen(c)
	c.SocialEnergy -= cost
	if c.SocialEnergy < MinEnergy {
		c.SocialEnergy = MinEnergy
	}
	c.UpdatedAt = r.now()
	return c.SocialEnergy
}

// SetEnergy overwrites a character's energy level, for rollback after a
// failed persistence.
func (r *Registry) SetEnergy(id string, energy float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.characters[id]
	if !ok {
		return
	}
	if energy > MaxEnergy {
		energy = MaxEnergy
	}
	if energy < MinEnergy {
		energy = MinEnergy
	}
	c.SocialEnergy = energy
	c.UpdatedAt = r.now()
}

// regen applies lazy energy regeneration up to now (caller holds lock).
func (r *Registry) regen(c *Character) {
	now := r.now()
	elapsed := now.Sub(c.UpdatedAt).Seconds()
	if elapsed <= 0 || c.SocialEnergy >= MaxEnergy {
		return
	}
	c.SocialEnergy += elapsed * RegenRate
	if c.SocialEnergy > MaxEnergy {
		c.SocialEnergy = MaxEnergy
	}
	c.UpdatedAt = now
}

func snapshotOf(c *Character) Snapshot {
	return Snapshot{
		ID:           c.ID,
		Name:         c.Name,
		Traits:       c.Traits,
		Autonomy:     c.Autonomy,
		SocialEnergy: c.SocialEnergy,
		EcosystemID:  c.EcosystemID,
	}
}
