package relation

import "time"

// Pair is an unordered pair of character ids in canonical (sorted)
// order, so (A,B) and (B,A) key the same relationship.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPair builds the canonical pair for two character ids.
func NewPair(x, y string) Pair {
	if x > y {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Contains reports whether id is one of the pair's characters.
func (p Pair) Contains(id string) bool {
	return p.A == id || p.B == id
}

// Metric bounds. Every relationship metric is clamped to [MinMetric,
// MaxMetric]; a missing relationship reads as all metrics at Midpoint.
const (
	MinMetric = 0.0
	MaxMetric = 1.0
	Midpoint  = 0.5
)

// Metrics are the named relationship dimensions.
type Metrics struct {
	Affinity float64 `json:"affinity"`
	Trust    float64 `json:"trust"`
	Rivalry  float64 `json:"rivalry"`
}

// NeutralMetrics returns all metrics at their midpoint.
func NeutralMetrics() Metrics {
	return Metrics{Affinity: Midpoint, Trust: Midpoint, Rivalry: Midpoint}
}

// Delta is a signed adjustment to relationship metrics.
type Delta struct {
	Affinity float64 `json:"affinity"`
	Trust    float64 `json:"trust"`
	Rivalry  float64 `json:"rivalry"`
}

// Scale returns the delta multiplied by f.
func (d Delta) Scale(f float64) Delta {
	return Delta{Affinity: d.Affinity * f, Trust: d.Trust * f, Rivalry: d.Rivalry * f}
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Affinity == 0 && d.Trust == 0 && d.Rivalry == 0
}

// Snapshot is an immutable copy of one relationship, safe to read
// without holding any lock.
type Snapshot struct {
	Pair             Pair      `json:"pair"`
	Metrics          Metrics   `json:"metrics"`
	InteractionCount int       `json:"interaction_count"`
	LastInteraction  time.Time `json:"last_interaction"`
}

func clamp(v float64) float64 {
	if v < MinMetric {
		return MinMetric
	}
	if v > MaxMetric {
		return MaxMetric
	}
	return v
}
