package character

import (
	"time"

	"github.com/nidhogg/vivarium/internal/personality"
)

// Character is a resident of the vivarium: a fixed personality profile
// plus the slow-moving social-energy reservoir the engine debits.
type Character struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Traits       personality.Traits `json:"traits"`
	Autonomy     float64            `json:"autonomy"`
	SocialEnergy float64            `json:"social_energy"`
	EcosystemID  string             `json:"ecosystem_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Snapshot is a read-only copy of a character valid for the duration of
// one interaction. SocialEnergy has lazy regeneration already applied.
type Snapshot struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Traits       personality.Traits `json:"traits"`
	Autonomy     float64            `json:"autonomy"`
	SocialEnergy float64            `json:"social_energy"`
	EcosystemID  string             `json:"ecosystem_id,omitempty"`
}

// Energy bounds and the lazy regeneration rate (energy regained per
// second of idle wall-clock time, capped at MaxEnergy).
const (
	MinEnergy = 0.0
	MaxEnergy = 1.0
	RegenRate = 0.01
)

// Valid reports whether autonomy and social energy lie in [0,1]. A zero
// social energy counts as unset; Register fills it to MaxEnergy.
func (c *Character) Valid() bool {
	return c.Autonomy >= 0 && c.Autonomy <= 1 &&
		c.SocialEnergy >= MinEnergy && c.SocialEnergy <= MaxEnergy
}
