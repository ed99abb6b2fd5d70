package emotion

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeClock lets tests advance time explicitly.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewTracker(clock.now, zap.NewNop()), clock
}

func TestSnapshotStartsAtBaseline(t *testing.T) {
	tr, _ := newTestTracker()
	snap := tr.Snapshot("a")
	base := DefaultBaseline()
	for _, e := range All {
		if snap.Intensities[e] != base[e] {
			t.Errorf("%s = %v, want baseline %v", e, snap.Intensities[e], base[e])
		}
	}
}

func TestApplyDeltaClamps(t *testing.T) {
	tr, _ := newTestTracker()
	snap := tr.ApplyDelta("a", Delta{Joy: 5, Anger: -5})
	if snap.Intensities[Joy] != MaxIntensity {
		t.Errorf("joy = %v, want clamped to %v", snap.Intensities[Joy], MaxIntensity)
	}
	if snap.Intensities[Anger] != MinIntensity {
		t.Errorf("anger = %v, want clamped to %v", snap.Intensities[Anger], MinIntensity)
	}
}

func TestDecayIsMonotoneTowardBaseline(t *testing.T) {
	tr, clock := newTestTracker()
	tr.ApplyDelta("a", Delta{Anger: 0.8})

	prev := tr.Snapshot("a").Intensities[Anger]
	for i := 0; i < 10; i++ {
		clock.advance(30 * time.Second)
		cur := tr.Snapshot("a").Intensities[Anger]
		if cur > prev {
			t.Fatalf("anger rose from %v to %v during decay", prev, cur)
		}
		prev = cur
	}

	// After a long time, decay settles exactly at baseline and stays.
	clock.advance(24 * time.Hour)
	base := DefaultBaseline()[Anger]
	if got := tr.Snapshot("a").Intensities[Anger]; got != base {
		t.Errorf("anger after long decay = %v, want baseline %v", got, base)
	}
	clock.advance(24 * time.Hour)
	if got := tr.Snapshot("a").Intensities[Anger]; got != base {
		t.Errorf("anger overshot baseline: %v, want %v", got, base)
	}
}

func TestDecayRisesTowardBaselineFromBelow(t *testing.T) {
	tr, clock := newTestTracker()
	tr.ApplyDelta("a", Delta{Calm: -0.5})

	clock.advance(24 * time.Hour)
	base := DefaultBaseline()[Calm]
	if got := tr.Snapshot("a").Intensities[Calm]; got != base {
		t.Errorf("calm after long decay = %v, want baseline %v", got, base)
	}
}

func TestRestore(t *testing.T) {
	tr, clock := newTestTracker()
	before := tr.Snapshot("a")

	tr.ApplyDelta("a", Delta{Joy: 0.5, Fear: 0.3})
	tr.Restore(before)

	snap := tr.Snapshot("a")
	for _, e := range All {
		if snap.Intensities[e] != before.Intensities[e] {
			t.Errorf("%s = %v after restore, want %v", e, snap.Intensities[e], before.Intensities[e])
		}
	}
	_ = clock
}

func TestDominant(t *testing.T) {
	tr, _ := newTestTracker()
	snap := tr.ApplyDelta("a", Delta{Sadness: 0.9})
	if got := snap.Dominant(); got != Sadness {
		t.Errorf("dominant = %s, want %s", got, Sadness)
	}
}
