package interaction

import (
	"time"

	"github.com/nidhogg/vivarium/internal/emotion"
	"github.com/nidhogg/vivarium/internal/relation"
)

// Type enumerates the supported interaction kinds.
type Type string

const (
	Greeting         Type = "greeting"
	Chat             Type = "chat"
	Discussion       Type = "discussion"
	Debate           Type = "debate"
	Conflict         Type = "conflict"
	Collaboration    Type = "collaboration"
	EmotionalSupport Type = "emotional_support"
)

// Rejection reasons.
const (
	ReasonInsufficientEnergy = "insufficient_energy"
	ReasonUnknownType        = "unknown_interaction_type"
)

// Content length bounds enforced before any lock is taken.
const (
	MinContentLen = 1
	MaxContentLen = 5000
)

// Effect is the declarative base effect of one interaction type before
// personality scaling. Relationship is the type's maximum delta: the
// trait-derived scale factors only ever shrink it.
type Effect struct {
	Relationship relation.Delta
	Initiator    emotion.Delta
	Target       emotion.Delta
	EnergyCost   float64
}

// effects maps each interaction type to its base effect.
var effects = map[Type]Effect{
	Greeting: {
		Relationship: relation.Delta{Affinity: 0.03, Trust: 0.01},
		Initiator:    emotion.Delta{emotion.Joy: 0.05},
		Target:       emotion.Delta{emotion.Joy: 0.05, emotion.Surprise: 0.02},
		EnergyCost:   0.05,
	},
	Chat: {
		Relationship: relation.Delta{Affinity: 0.05, Trust: 0.02},
		Initiator:    emotion.Delta{emotion.Joy: 0.08, emotion.Calm: 0.03},
		Target:       emotion.Delta{emotion.Joy: 0.08, emotion.Calm: 0.03},
		EnergyCost:   0.10,
	},
	Discussion: {
		Relationship: relation.Delta{Affinity: 0.03, Trust: 0.05},
		Initiator:    emotion.Delta{emotion.Joy: 0.04, emotion.Surprise: 0.04},
		Target:       emotion.Delta{emotion.Joy: 0.04, emotion.Surprise: 0.04},
		EnergyCost:   0.15,
	},
	Debate: {
		Relationship: relation.Delta{Affinity: -0.02, Trust: 0.03, Rivalry: 0.05},
		Initiator:    emotion.Delta{emotion.Surprise: 0.05, emotion.Anger: 0.04, emotion.Joy: 0.03},
		Target:       emotion.Delta{emotion.Surprise: 0.05, emotion.Anger: 0.04, emotion.Joy: 0.03},
		EnergyCost:   0.20,
	},
	Conflict: {
		Relationship: relation.Delta{Affinity: -0.08, Trust: -0.06, Rivalry: 0.10},
		Initiator:    emotion.Delta{emotion.Anger: 0.15, emotion.Calm: -0.10},
		Target:       emotion.Delta{emotion.Anger: 0.15, emotion.Sadness: 0.08, emotion.Calm: -0.10},
		EnergyCost:   0.25,
	},
	Collaboration: {
		Relationship: relation.Delta{Affinity: 0.06, Trust: 0.08, Rivalry: -0.03},
		Initiator:    emotion.Delta{emotion.Joy: 0.10, emotion.Calm: 0.05},
		Target:       emotion.Delta{emotion.Joy: 0.10, emotion.Calm: 0.05},
		EnergyCost:   0.20,
	},
	EmotionalSupport: {
		Relationship: relation.Delta{Affinity: 0.07, Trust: 0.09, Rivalry: -0.02},
		Initiator:    emotion.Delta{emotion.Joy: 0.05, emotion.Calm: 0.05},
		Target:       emotion.Delta{emotion.Sadness: -0.10, emotion.Fear: -0.05, emotion.Calm: 0.10, emotion.Joy: 0.05},
		EnergyCost:   0.15,
	},
}

// KnownType reports whether t is a supported interaction type.
func KnownType(t Type) bool {
	_, ok := effects[t]
	return ok
}

// EffectOf returns the base effect table entry for a known type.
func EffectOf(t Type) (Effect, bool) {
	e, ok := effects[t]
	return e, ok
}

// Types lists every supported interaction type.
func Types() []Type {
	return []Type{Greeting, Chat, Discussion, Debate, Conflict, Collaboration, EmotionalSupport}
}

// Record is the immutable account of one processed interaction,
// persisted append-only and never mutated after creation.
type Record struct {
	ID                string         `json:"id"`
	EcosystemID       string         `json:"ecosystem_id,omitempty"`
	InitiatorID       string         `json:"initiator_id"`
	TargetID          string         `json:"target_id"`
	Type              Type           `json:"type"`
	Content           string         `json:"content"`
	Timestamp         time.Time      `json:"timestamp"`
	Accepted          bool           `json:"accepted"`
	Reason            string         `json:"reason,omitempty"`
	Response          string         `json:"response,omitempty"`
	RelationshipDelta relation.Delta `json:"relationship_delta"`
	InitiatorEmotion  emotion.Delta  `json:"initiator_emotion"`
	TargetEmotion     emotion.Delta  `json:"target_emotion"`
	EnergyCost        float64        `json:"energy_cost"`
}
