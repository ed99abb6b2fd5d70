package emotion

// Emotion names one tracked mood dimension.
type Emotion string

const (
	Joy      Emotion = "joy"
	Sadness  Emotion = "sadness"
	Anger    Emotion = "anger"
	Fear     Emotion = "fear"
	Surprise Emotion = "surprise"
	Calm     Emotion = "calm"
)

// All lists every tracked emotion.
var All = []Emotion{Joy, Sadness, Anger, Fear, Surprise, Calm}

// Intensity bounds.
const (
	MinIntensity = 0.0
	MaxIntensity = 1.0
)

// Delta is a set of signed intensity adjustments.
type Delta map[Emotion]float64

// Scale returns a copy of the delta multiplied by f.
func (d Delta) Scale(f float64) Delta {
	out := make(Delta, len(d))
	for e, v := range d {
		out[e] = v * f
	}
	return out
}

// DefaultBaseline is the resting intensity each emotion decays toward:
// mildly calm, everything else near quiet.
func DefaultBaseline() map[Emotion]float64 {
	return map[Emotion]float64{
		Joy:      0.2,
		Sadness:  0.1,
		Anger:    0.0,
		Fear:     0.0,
		Surprise: 0.0,
		Calm:     0.5,
	}
}

func clamp(v float64) float64 {
	if v < MinIntensity {
		return MinIntensity
	}
	if v > MaxIntensity {
		return MaxIntensity
	}
	return v
}
