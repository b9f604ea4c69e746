// Package behavior implements the trainable policy that scores robot actions.
package behavior

// featureNames is the fixed order of policy input features.
var featureNames = []string{
	"stimulus",
	"confidence",
	"reward_bias",
	"mood",
	"stress",
	"fatigue",
	"environmental_complexity",
	"social_engagement",
}

// FeatureNames returns the policy input feature names in vector order.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// FeatureCount is the size of the policy input vector.
func FeatureCount() int { return len(featureNames) }

// Inputs is the feature set the policy scores an action against.
// Mood ranges over [-1, 1]; every other field over [0, 1].
type Inputs struct {
	Stimulus                float64 `json:"stimulus"`
	Confidence              float64 `json:"confidence"`
	RewardBias              float64 `json:"reward_bias"`
	Mood                    float64 `json:"mood"`
	Stress                  float64 `json:"stress"`
	Fatigue                 float64 `json:"fatigue"`
	EnvironmentalComplexity float64 `json:"environmental_complexity"`
	SocialEngagement        float64 `json:"social_engagement"`
}

// Vector returns the normalized feature vector. Mood is remapped from
// [-1, 1] to [0, 1]; all features are clamped.
func (in Inputs) Vector() []float64 {
	return []float64{
		clamp01(in.Stimulus),
		clamp01(in.Confidence),
		clamp01(in.RewardBias),
		clamp01((in.Mood + 1.0) / 2.0),
		clamp01(in.Stress),
		clamp01(in.Fatigue),
		clamp01(in.EnvironmentalComplexity),
		clamp01(in.SocialEngagement),
	}
}

// Vector is the policy's scored outcome for an action.
type Vector struct {
	Score  float64 `json:"score"`
	Action string  `json:"action"`
}

// Example pairs inputs with a target score for training.
type Example struct {
	Inputs Inputs
	Target float64
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
