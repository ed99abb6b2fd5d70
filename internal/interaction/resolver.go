package interaction

import (
	"github.com/nidhogg/vivarium/internal/character"
	"github.com/nidhogg/vivarium/internal/emotion"
	"github.com/nidhogg/vivarium/internal/personality"
	"github.com/nidhogg/vivarium/internal/relation"
)

// Input carries everything the resolver reads: snapshots only, no
// shared mutable state.
type Input struct {
	Initiator        character.Snapshot
	Target           character.Snapshot
	Relationship     *relation.Snapshot // nil reads as the neutral midpoint
	InitiatorEmotion emotion.Snapshot
	TargetEmotion    emotion.Snapshot
	Type             Type
	Content          string
	Context          map[string]string
}

// Resolution is the computed outcome of one interaction, independent of
// persistence and publishing.
type Resolution struct {
	Accepted          bool           `json:"accepted"`
	Reason            string         `json:"reason,omitempty"`
	RelationshipDelta relation.Delta `json:"relationship_delta"`
	InitiatorEmotion  emotion.Delta  `json:"initiator_emotion"`
	TargetEmotion     emotion.Delta  `json:"target_emotion"`
	EnergyCost        float64        `json:"energy_cost"`
	Compatibility     float64        `json:"compatibility"`
}

// Resolve computes the outcome of a single interaction. It is a pure
// function of its input: identical inputs always produce identical
// resolutions, so any replay reproduces the stored deltas exactly.
//
// Relationship scaling: each component of the type's base delta is
// multiplied by a trait-derived factor in (0,1]. Beneficial components
// (affinity or trust gains, rivalry reductions) scale with pairwise
// compatibility and the parties' warmth, so alike and warm characters
// bond faster. Harmful components (affinity or trust losses, rivalry
// gains) are dampened by the parties' conflict aversion, so agreeable
// characters blunt the fallout of conflict and debate. The base delta
// is therefore the type's maximum possible delta.
//
// Emotional scaling: each party's base emotional delta is multiplied by
// that party's neuroticism-weighted volatility; clamping to intensity
// bounds happens at application time, not here.
func Resolve(in Input) Resolution {
	eff, ok := effects[in.Type]
	if !ok {
		return Resolution{Accepted: false, Reason: ReasonUnknownType}
	}

	comp := personality.Compatibility(in.Initiator.Traits, in.Target.Traits)

	if in.Initiator.SocialEnergy < eff.EnergyCost || in.Target.SocialEnergy < eff.EnergyCost {
		return Resolution{
			Accepted:      false,
			Reason:        ReasonInsufficientEnergy,
			EnergyCost:    eff.EnergyCost,
			Compatibility: comp,
		}
	}

	warmth := (in.Initiator.Traits.Warmth() + in.Target.Traits.Warmth()) / 2
	aversion := (in.Initiator.Traits.ConflictAversion() + in.Target.Traits.ConflictAversion()) / 2

	posScale := 0.25 + 0.375*comp + 0.375*warmth // (0,1]
	negScale := 1 - 0.7*aversion                 // [0.3,1]

	return Resolution{
		Accepted:          true,
		RelationshipDelta: scaleRelationship(eff.Relationship, posScale, negScale),
		InitiatorEmotion:  eff.Initiator.Scale(in.Initiator.Traits.Volatility()),
		TargetEmotion:     eff.Target.Scale(in.Target.Traits.Volatility()),
		EnergyCost:        eff.EnergyCost,
		Compatibility:     comp,
	}
}

// scaleRelationship applies posScale to beneficial components and
// negScale to harmful ones. Rivalry is inverted: gaining rivalry is
// harmful, shedding it is beneficial.
func scaleRelationship(d relation.Delta, posScale, negScale float64) relation.Delta {
	pick := func(v float64, harmful bool) float64 {
		if harmful {
			return v * negScale
		}
		return v * posScale
	}
	return relation.Delta{
		Affinity: pick(d.Affinity, d.Affinity < 0),
		Trust:    pick(d.Trust, d.Trust < 0),
		Rivalry:  pick(d.Rivalry, d.Rivalry > 0),
	}
}
