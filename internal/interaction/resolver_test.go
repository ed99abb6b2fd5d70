package interaction

import (
	"reflect"
	"testing"

	"github.com/nidhogg/vivarium/internal/character"
	"github.com/nidhogg/vivarium/internal/personality"
)

func snap(id string, traits personality.Traits, energy float64) character.Snapshot {
	return character.Snapshot{ID: id, Name: id, Traits: traits, SocialEnergy: energy}
}

// An extraverted, agreeable A greets a reserved B. The greeting
// should be accepted, cost 0.05, and raise affinity by a positive
// amount no larger than the type's base delta.
func TestGreetingRaisesAffinityWithinBaseBound(t *testing.T) {
	a := snap("a", personality.Traits{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.9, Agreeableness: 0.8, Neuroticism: 0.5}, 1.0)
	b := snap("b", personality.Traits{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.2, Agreeableness: 0.3, Neuroticism: 0.5}, 1.0)

	res := Resolve(Input{Initiator: a, Target: b, Type: Greeting, Content: "hello"})
	if !res.Accepted {
		t.Fatalf("greeting rejected: %s", res.Reason)
	}
	if res.EnergyCost != 0.05 {
		t.Errorf("energy cost = %v, want 0.05", res.EnergyCost)
	}
	base, _ := EffectOf(Greeting)
	if res.RelationshipDelta.Affinity <= 0 {
		t.Errorf("affinity delta = %v, want positive", res.RelationshipDelta.Affinity)
	}
	if res.RelationshipDelta.Affinity > base.Relationship.Affinity {
		t.Errorf("affinity delta %v exceeds base maximum %v", res.RelationshipDelta.Affinity, base.Relationship.Affinity)
	}
}

func TestConflictLowersAffinityAndRaisesRivalry(t *testing.T) {
	a := snap("a", personality.Neutral(), 1.0)
	b := snap("b", personality.Neutral(), 1.0)

	res := Resolve(Input{Initiator: a, Target: b, Type: Conflict, Content: "you were wrong"})
	if !res.Accepted {
		t.Fatalf("conflict rejected: %s", res.Reason)
	}
	if res.EnergyCost != 0.25 {
		t.Errorf("energy cost = %v, want 0.25", res.EnergyCost)
	}
	if res.RelationshipDelta.Affinity >= 0 {
		t.Errorf("affinity delta = %v, want negative", res.RelationshipDelta.Affinity)
	}
	if res.RelationshipDelta.Rivalry <= 0 {
		t.Errorf("rivalry delta = %v, want positive", res.RelationshipDelta.Rivalry)
	}
}

func TestAgreeablenessDampensConflict(t *testing.T) {
	gentleTraits := personality.Traits{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.5, Agreeableness: 0.95, Neuroticism: 0.5}
	harshTraits := personality.Traits{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.5, Agreeableness: 0.05, Neuroticism: 0.5}

	gentle := Resolve(Input{Initiator: snap("a", gentleTraits, 1), Target: snap("b", gentleTraits, 1), Type: Conflict, Content: "x"})
	harsh := Resolve(Input{Initiator: snap("a", harshTraits, 1), Target: snap("b", harshTraits, 1), Type: Conflict, Content: "x"})

	if gentle.RelationshipDelta.Affinity <= harsh.RelationshipDelta.Affinity {
		t.Errorf("agreeable pair affinity loss %v should be milder than harsh pair %v",
			gentle.RelationshipDelta.Affinity, harsh.RelationshipDelta.Affinity)
	}
	if gentle.RelationshipDelta.Rivalry >= harsh.RelationshipDelta.Rivalry {
		t.Errorf("agreeable pair rivalry gain %v should be smaller than harsh pair %v",
			gentle.RelationshipDelta.Rivalry, harsh.RelationshipDelta.Rivalry)
	}
}

func TestExtraversionAmplifiesChat(t *testing.T) {
	warm := personality.Traits{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.95, Agreeableness: 0.9, Neuroticism: 0.5}
	cold := personality.Traits{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.05, Agreeableness: 0.1, Neuroticism: 0.5}

	warmRes := Resolve(Input{Initiator: snap("a", warm, 1), Target: snap("b", warm, 1), Type: Chat, Content: "x"})
	coldRes := Resolve(Input{Initiator: snap("a", cold, 1), Target: snap("b", cold, 1), Type: Chat, Content: "x"})

	if warmRes.RelationshipDelta.Affinity <= coldRes.RelationshipDelta.Affinity {
		t.Errorf("warm pair affinity gain %v should exceed cold pair %v",
			warmRes.RelationshipDelta.Affinity, coldRes.RelationshipDelta.Affinity)
	}
}

func TestVolatilityScalesEmotionalDelta(t *testing.T) {
	steady := personality.Traits{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.5, Agreeableness: 0.5, Neuroticism: 0.0}
	anxious := personality.Traits{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.5, Agreeableness: 0.5, Neuroticism: 1.0}

	res := Resolve(Input{Initiator: snap("a", steady, 1), Target: snap("b", anxious, 1), Type: Conflict, Content: "x"})
	base, _ := EffectOf(Conflict)

	wantInitiator := base.Initiator.Scale(steady.Volatility())
	wantTarget := base.Target.Scale(anxious.Volatility())
	if !reflect.DeepEqual(res.InitiatorEmotion, wantInitiator) {
		t.Errorf("initiator emotion = %v, want %v", res.InitiatorEmotion, wantInitiator)
	}
	if !reflect.DeepEqual(res.TargetEmotion, wantTarget) {
		t.Errorf("target emotion = %v, want %v", res.TargetEmotion, wantTarget)
	}
	for e, v := range res.TargetEmotion {
		if sv := res.InitiatorEmotion[e]; sv != 0 && v != 0 && absf(v) <= absf(sv) && base.Initiator[e] == base.Target[e] {
			t.Errorf("anxious target should feel %s more strongly: %v vs %v", e, v, sv)
		}
	}
}

func TestInsufficientEnergyRejects(t *testing.T) {
	a := snap("a", personality.Neutral(), 0.04)
	b := snap("b", personality.Neutral(), 1.0)

	res := Resolve(Input{Initiator: a, Target: b, Type: Greeting, Content: "x"})
	if res.Accepted {
		t.Fatal("expected rejection")
	}
	if res.Reason != ReasonInsufficientEnergy {
		t.Errorf("reason = %q, want %q", res.Reason, ReasonInsufficientEnergy)
	}
	if !res.RelationshipDelta.IsZero() {
		t.Errorf("rejected interaction carries relationship delta: %+v", res.RelationshipDelta)
	}
}

func TestUnknownTypeRejects(t *testing.T) {
	res := Resolve(Input{
		Initiator: snap("a", personality.Neutral(), 1),
		Target:    snap("b", personality.Neutral(), 1),
		Type:      Type("unknown_type"),
		Content:   "x",
	})
	if res.Accepted {
		t.Fatal("expected rejection")
	}
	if res.Reason != ReasonUnknownType {
		t.Errorf("reason = %q, want %q", res.Reason, ReasonUnknownType)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	in := Input{
		Initiator: snap("a", personality.Traits{Openness: 0.7, Conscientiousness: 0.3, Extraversion: 0.8, Agreeableness: 0.6, Neuroticism: 0.4}, 0.9),
		Target:    snap("b", personality.Traits{Openness: 0.2, Conscientiousness: 0.9, Extraversion: 0.3, Agreeableness: 0.4, Neuroticism: 0.7}, 0.8),
		Type:      Debate,
		Content:   "the motion stands",
	}
	first := Resolve(in)
	for i := 0; i < 10; i++ {
		if got := Resolve(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("resolution %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
