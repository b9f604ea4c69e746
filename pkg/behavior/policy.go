package behavior

import (
	"math/rand"
)

// defaultWeights is the baseline linear weighting applied when a warm-start
// weight map omits a feature.
var defaultWeights = map[string]float64{
	"stimulus":                 0.4,
	"confidence":               0.3,
	"reward_bias":              0.2,
	"mood":                     0.1,
	"stress":                   -0.1,
	"fatigue":                  -0.1,
	"environmental_complexity": -0.05,
	"social_engagement":        0.05,
}

const (
	defaultLearningRate = 0.05
	defaultEpochs       = 150
)

// Policy scores actions from behavior inputs. It starts from either random
// initialization or a linear warm start, and can be trained further on
// labeled examples.
type Policy struct {
	model   *mlp
	rng     *rand.Rand
	trained bool

	// TrainingHistory accumulates per-epoch mean losses across Train calls.
	TrainingHistory []float64
}

// NewPolicy builds a policy from a configuration map, typically
// Settings.PolicyConfig(). Two shapes are accepted:
//
//   - a legacy map where every value is numeric, treated as a bare
//     feature-weight map;
//   - a structured map with optional keys "weights", "learning_rate",
//     "hidden_size", "seed", "training_data" and "epochs".
func NewPolicy(cfg map[string]any) *Policy {
	legacyWeights := map[string]float64{}
	structured := cfg

	if len(cfg) > 0 && allNumeric(cfg) {
		for k, v := range cfg {
			legacyWeights[k], _ = toFloat(v)
		}
		structured = map[string]any{}
	} else if raw, ok := cfg["weights"].(map[string]any); ok {
		for k, v := range raw {
			if f, ok := toFloat(v); ok {
				legacyWeights[k] = f
			}
		}
	}

	learningRate := defaultLearningRate
	if v, ok := toFloat(structured["learning_rate"]); ok {
		learningRate = v
	}

	hiddenSize := FeatureCount()
	if v, ok := toFloat(structured["hidden_size"]); ok && int(v) > hiddenSize {
		hiddenSize = int(v)
	}

	var rng *rand.Rand
	if seed, ok := toFloat(structured["seed"]); ok {
		rng = rand.New(rand.NewSource(int64(seed)))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	p := &Policy{
		model: newMLP(FeatureCount(), hiddenSize, learningRate, rng),
		rng:   rng,
	}

	if len(legacyWeights) > 0 {
		p.warmStart(legacyWeights)
	}

	if dataset := parseTrainingData(structured["training_data"]); len(dataset) > 0 {
		epochs := defaultEpochs
		if v, ok := toFloat(structured["epochs"]); ok {
			epochs = int(v)
		}
		p.Train(dataset, epochs)
	}

	return p
}

// warmStart initializes the model as a linear scorer over the configured
// feature weights, falling back to defaults for missing features.
func (p *Policy) warmStart(weightMap map[string]float64) {
	features := make([]float64, 0, FeatureCount())
	for _, name := range featureNames {
		w, ok := weightMap[name]
		if !ok {
			w = defaultWeights[name]
		}
		features = append(features, w)
	}
	p.model.setLinearMapping(features, weightMap["bias"])
}

// Train runs SGD over the dataset and returns the per-epoch mean losses.
func (p *Policy) Train(dataset []Example, epochs int) []float64 {
	if len(dataset) == 0 {
		return nil
	}
	if epochs < 1 {
		epochs = 1
	}
	data := make([]Example, len(dataset))
	copy(data, dataset)

	history := make([]float64, 0, epochs)
	for e := 0; e < epochs; e++ {
		p.rng.Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })
		total := 0.0
		for _, ex := range data {
			total += p.model.trainStep(ex.Inputs.Vector(), clamp01(ex.Target))
		}
		history = append(history, total/float64(len(data)))
	}
	p.TrainingHistory = append(p.TrainingHistory, history...)
	p.trained = true
	return history
}

// Trained reports whether the policy has been trained on examples.
func (p *Policy) Trained() bool { return p.trained }

// Decide scores the inputs and pairs the clamped score with the action.
func (p *Policy) Decide(action string, inputs Inputs) Vector {
	score := clamp01(p.model.predict(inputs.Vector()))
	return Vector{Score: score, Action: action}
}

// parseTrainingData extracts training examples from a decoded config value.
// Each element is a map with an "inputs" map and a "target" (or "score").
func parseTrainingData(raw any) []Example {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []Example
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		inputsMap, ok := entry["inputs"].(map[string]any)
		if !ok {
			continue
		}
		target, ok := toFloat(entry["target"])
		if !ok {
			if target, ok = toFloat(entry["score"]); !ok {
				continue
			}
		}
		out = append(out, Example{
			Inputs: inputsFromMap(inputsMap),
			Target: clamp01(target),
		})
	}
	return out
}

func inputsFromMap(m map[string]any) Inputs {
	get := func(key string) float64 {
		v, _ := toFloat(m[key])
		return v
	}
	return Inputs{
		Stimulus:                get("stimulus"),
		Confidence:              get("confidence"),
		RewardBias:              get("reward_bias"),
		Mood:                    get("mood"),
		Stress:                  get("stress"),
		Fatigue:                 get("fatigue"),
		EnvironmentalComplexity: get("environmental_complexity"),
		SocialEngagement:        get("social_engagement"),
	}
}

func allNumeric(m map[string]any) bool {
	for _, v := range m {
		if _, ok := toFloat(v); !ok {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
