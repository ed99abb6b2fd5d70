package emotion

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DecayRate is the intensity moved toward baseline per second of
// elapsed wall-clock time.
const DecayRate = 0.002

// Snapshot is an immutable copy of one character's emotional state with
// decay already applied.
type Snapshot struct {
	CharacterID string              `json:"character_id"`
	Intensities map[Emotion]float64 `json:"intensities"`
	Baseline    map[Emotion]float64 `json:"baseline"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Dominant returns the emotion with the highest intensity.
func (s Snapshot) Dominant() Emotion {
	best := Calm
	bestV := -1.0
	for _, e := range All {
		if v := s.Intensities[e]; v > bestV {
			best, bestV = e, v
		}
	}
	return best
}

type state struct {
	intensities map[Emotion]float64
	baseline    map[Emotion]float64
	updatedAt   time.Time
}

// Tracker holds per-character emotional state. Decay toward baseline is
// computed lazily from elapsed time at read, not by a background sweep.
type Tracker struct {
	states map[string]*state
	now    func() time.Time
	mu     sync.Mutex
	logger *zap.Logger
}

// NewTracker creates a tracker using the given clock. A nil clock means
// time.Now.
func NewTracker(now func() time.Time, logger *zap.Logger) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		states: make(map[string]*state),
		now:    now,
		logger: logger,
	}
}

// Snapshot returns the character's current state with decay applied,
// creating a baseline state if none exists.
func (t *Tracker) Snapshot(characterID string) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.getOrCreate(characterID)
	t.materialize(st)
	return snapshotOf(characterID, st)
}

// ApplyDelta decays the state to now, applies the delta with clamping,
// and returns the resulting snapshot.
func (t *Tracker) ApplyDelta(characterID string, d Delta) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.getOrCreate(characterID)
	t.materialize(st)
	for e, v := range d {
		st.intensities[e] = clamp(st.intensities[e] + v)
	}
	snap := snapshotOf(characterID, st)

	t.logger.Debug("emotional state updated",
		zap.String("character", characterID),
		zap.String("dominant", string(snap.Dominant())))
	return snap
}

// Restore overwrites a character's state with a previously taken
// snapshot, for rollback after a failed persistence.
func (t *Tracker) Restore(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[snap.CharacterID] = &state{
		intensities: copyMap(snap.Intensities),
		baseline:    copyMap(snap.Baseline),
		updatedAt:   snap.UpdatedAt,
	}
}

// Load seeds the tracker with a persisted snapshot.
func (t *Tracker) Load(snap Snapshot) {
	t.Restore(snap)
}

// materialize applies decay up to now in place (caller holds lock).
// Each intensity moves linearly toward its baseline and stops there:
// monotone, never overshooting.
func (t *Tracker) materialize(st *state) {
	now := t.now()
	elapsed := now.Sub(st.updatedAt).Seconds()
	if elapsed <= 0 {
		return
	}
	step := elapsed * DecayRate
	for _, e := range All {
		cur := st.intensities[e]
		base := st.baseline[e]
		switch {
		case cur > base:
			cur -= step
			if cur < base {
				cur = base
			}
		case cur < base:
			cur += step
			if cur > base {
				cur = base
			}
		}
		st.intensities[e] = cur
	}
	st.updatedAt = now
}

func (t *Tracker) getOrCreate(characterID string) *state {
	st, ok := t.states[characterID]
	if !ok {
		base := DefaultBaseline()
		st = &state{
			intensities: copyMap(base),
			baseline:    base,
			updatedAt:   t.now(),
		}
		t.states[characterID] = st
	}
	return st
}

func snapshotOf(characterID string, st *state) Snapshot {
	return Snapshot{
		CharacterID: characterID,
		Intensities: copyMap(st.intensities),
		Baseline:    copyMap(st.baseline),
		UpdatedAt:   st.updatedAt,
	}
}

func copyMap(m map[Emotion]float64) map[Emotion]float64 {
	out := make(map[Emotion]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
