package personality

import "math"

// Traits is a Big Five trait vector. Every value is in [0,1]; the
// data-entry boundary (API / seed loader) enforces the range, functions
// here assume it.
type Traits struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// Neutral returns a trait vector with every trait at the midpoint.
func Neutral() Traits {
	return Traits{
		Openness:          0.5,
		Conscientiousness: 0.5,
		Extraversion:      0.5,
		Agreeableness:     0.5,
		Neuroticism:       0.5,
	}
}

// Valid reports whether every trait lies in [0,1].
func (t Traits) Valid() bool {
	for _, v := range [...]float64{t.Openness, t.Conscientiousness, t.Extraversion, t.Agreeableness, t.Neuroticism} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// InitiationBias is the extraversion-weighted willingness to start an
// interaction, in [0.25, 1.0].
func (t Traits) InitiationBias() float64 {
	return 0.25 + 0.75*t.Extraversion
}

// ConflictAversion is the agreeableness-weighted tendency to dampen
// hostile exchanges, in [0,1]. High agreeableness softens the negative
// relationship deltas of conflict and debate.
func (t Traits) ConflictAversion() float64 {
	return 0.15 + 0.7*t.Agreeableness + 0.15*t.Conscientiousness
}

// Warmth amplifies the positive relationship deltas of friendly
// interaction types, in [0,1].
func (t Traits) Warmth() float64 {
	return 0.6*t.Agreeableness + 0.4*t.Extraversion
}

// Curiosity scales the benefit of discussions and collaborations.
func (t Traits) Curiosity() float64 {
	return 0.7*t.Openness + 0.3*t.Conscientiousness
}

// Volatility is the neuroticism-weighted multiplier applied to
// emotional deltas, in [0.5, 1.5]. A volatile character feels the same
// interaction more strongly.
func (t Traits) Volatility() float64 {
	return 0.5 + t.Neuroticism
}

// Compatibility is a symmetric similarity score for two trait vectors,
// in [0,1]. It is 1 minus the mean absolute trait distance.
func Compatibility(a, b Traits) float64 {
	d := math.Abs(a.Openness-b.Openness) +
		math.Abs(a.Conscientiousness-b.Conscientiousness) +
		math.Abs(a.Extraversion-b.Extraversion) +
		math.Abs(a.Agreeableness-b.Agreeableness) +
		math.Abs(a.Neuroticism-b.Neuroticism)
	return 1 - d/5
}
