package character

import (
	"testing"
	"time"

	"github.com/nidhogg/vivarium/internal/personality"
	"go.uber.org/zap"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry() (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewRegistry(clock.now, zap.NewNop()), clock
}

func TestRegisterAssignsIDAndFullEnergy(t *testing.T) {
	r, _ := newTestRegistry()
	c := &Character{Name: "Ada", Traits: personality.Neutral()}
	r.Register(c)

	if c.ID == "" {
		t.Fatal("expected generated id")
	}
	snap, ok := r.Snapshot(c.ID)
	if !ok {
		t.Fatal("snapshot: character missing")
	}
	if snap.SocialEnergy != MaxEnergy {
		t.Errorf("energy = %v, want %v", snap.SocialEnergy, MaxEnergy)
	}
}

func TestRegisterClampsOutOfRangeFields(t *testing.T) {
	r, _ := newTestRegistry()
	c := &Character{ID: "a", Name: "Ada", SocialEnergy: 5.0, Autonomy: -0.2}
	r.Register(c)

	snap, _ := r.Snapshot("a")
	if snap.SocialEnergy != MaxEnergy {
		t.Errorf("energy = %v, want clamped to %v", snap.SocialEnergy, MaxEnergy)
	}
	if snap.Autonomy != 0 {
		t.Errorf("autonomy = %v, want clamped to 0", snap.Autonomy)
	}

	r.Register(&Character{ID: "b", Name: "Brook", Autonomy: 1.4})
	snap, _ = r.Snapshot("b")
	if snap.Autonomy != 1 {
		t.Errorf("autonomy = %v, want clamped to 1", snap.Autonomy)
	}
}

func TestDebitEnergyFloorsAtZero(t *testing.T) {
	r, _ := newTestRegistry()
	c := &Character{ID: "a", Name: "Ada"}
	r.Register(c)

	if got := r.DebitEnergy("a", 0.3); got != 0.7 {
		t.Errorf("energy after debit = %v, want 0.7", got)
	}
	if got := r.DebitEnergy("a", 5); got != MinEnergy {
		t.Errorf("energy after oversized debit = %v, want %v", got, MinEnergy)
	}
}

func TestEnergyRegeneratesLazily(t *testing.T) {
	r, clock := newTestRegistry()
	r.Register(&Character{ID: "a", Name: "Ada"})
	r.DebitEnergy("a", 0.5)

	clock.advance(10 * time.Second)
	snap, _ := r.Snapshot("a")
	want := 0.5 + 10*RegenRate
	if diff := snap.SocialEnergy - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("energy after 10s = %v, want %v", snap.SocialEnergy, want)
	}

	// Regeneration caps at full.
	clock.advance(24 * time.Hour)
	snap, _ = r.Snapshot("a")
	if snap.SocialEnergy != MaxEnergy {
		t.Errorf("energy after a day = %v, want %v", snap.SocialEnergy, MaxEnergy)
	}
}

func TestListEcosystem(t *testing.T) {
	r, _ := newTestRegistry()
	r.Register(&Character{ID: "a", EcosystemID: "eco-1"})
	r.Register(&Character{ID: "b", EcosystemID: "eco-1"})
	r.Register(&Character{ID: "c", EcosystemID: "eco-2"})

	if got := len(r.ListEcosystem("eco-1")); got != 2 {
		t.Errorf("eco-1 members = %d, want 2", got)
	}
	if got := len(r.ListEcosystem("eco-3")); got != 0 {
		t.Errorf("eco-3 members = %d, want 0", got)
	}
}
