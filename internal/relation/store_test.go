package relation

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewPairCanonicalOrder(t *testing.T) {
	if NewPair("bob", "alice") != NewPair("alice", "bob") {
		t.Error("(A,B) and (B,A) should build the same pair")
	}
	p := NewPair("zed", "amy")
	if p.A != "amy" || p.B != "zed" {
		t.Errorf("pair not sorted: %+v", p)
	}
}

func TestSnapshotCreatesNeutralRecord(t *testing.T) {
	s := NewStore(zap.NewNop())
	snap := s.Snapshot(NewPair("a", "b"))
	if snap.Metrics != NeutralMetrics() {
		t.Errorf("new relationship metrics = %+v, want neutral", snap.Metrics)
	}
	if snap.InteractionCount != 0 {
		t.Errorf("new relationship count = %d, want 0", snap.InteractionCount)
	}
	if s.Count() != 1 {
		t.Errorf("store count = %d, want 1", s.Count())
	}
}

func TestCanonicalPairSharesRecord(t *testing.T) {
	s := NewStore(zap.NewNop())
	now := time.Now()
	s.ApplyDelta(NewPair("a", "b"), Delta{Affinity: 0.1}, now)
	s.ApplyDelta(NewPair("b", "a"), Delta{Affinity: 0.1}, now)

	if s.Count() != 1 {
		t.Fatalf("store count = %d, want 1 record per unordered pair", s.Count())
	}
	snap := s.Snapshot(NewPair("a", "b"))
	if snap.InteractionCount != 2 {
		t.Errorf("interaction count = %d, want 2", snap.InteractionCount)
	}
	if got, want := snap.Metrics.Affinity, 0.7; got != want {
		t.Errorf("affinity = %v, want %v", got, want)
	}
}

func TestApplyDeltaClampsToBounds(t *testing.T) {
	s := NewStore(zap.NewNop())
	p := NewPair("a", "b")
	now := time.Now()

	snap := s.ApplyDelta(p, Delta{Affinity: 100, Trust: -100, Rivalry: 0.2}, now)
	if snap.Metrics.Affinity != MaxMetric {
		t.Errorf("affinity = %v, want clamped to %v", snap.Metrics.Affinity, MaxMetric)
	}
	if snap.Metrics.Trust != MinMetric {
		t.Errorf("trust = %v, want clamped to %v", snap.Metrics.Trust, MinMetric)
	}

	// Repeated large negatives must floor, never wrap.
	for i := 0; i < 50; i++ {
		snap = s.ApplyDelta(p, Delta{Affinity: -10}, now)
	}
	if snap.Metrics.Affinity != MinMetric {
		t.Errorf("affinity after repeated negatives = %v, want %v", snap.Metrics.Affinity, MinMetric)
	}
}

func TestRestoreRollsBack(t *testing.T) {
	s := NewStore(zap.NewNop())
	p := NewPair("a", "b")
	before := s.Snapshot(p)

	s.ApplyDelta(p, Delta{Affinity: 0.3, Trust: 0.2}, time.Now())
	s.Restore(before)

	after := s.Snapshot(p)
	if after.Metrics != before.Metrics || after.InteractionCount != before.InteractionCount {
		t.Errorf("restore mismatch: got %+v, want %+v", after, before)
	}
}
