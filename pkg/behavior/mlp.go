package behavior

import (
	"math"
	"math/rand"
)

// mlp is a single-hidden-layer network: tanh hidden units and a sigmoid
// output. Small enough to train online on a handful of examples.
type mlp struct {
	inputSize    int
	hiddenSize   int
	learningRate float64

	hiddenWeights [][]float64
	hiddenBias    []float64
	outputWeights []float64
	outputBias    float64
}

func newMLP(inputSize, hiddenSize int, learningRate float64, rng *rand.Rand) *mlp {
	scale := 1.0 / math.Sqrt(math.Max(1, float64(inputSize)))
	m := &mlp{
		inputSize:     inputSize,
		hiddenSize:    hiddenSize,
		learningRate:  learningRate,
		hiddenWeights: make([][]float64, hiddenSize),
		hiddenBias:    make([]float64, hiddenSize),
		outputWeights: make([]float64, hiddenSize),
	}
	for i := range m.hiddenWeights {
		row := make([]float64, inputSize)
		for j := range row {
			row[j] = rng.Float64()*2*scale - scale
		}
		m.hiddenWeights[i] = row
		m.outputWeights[i] = rng.Float64()*2*scale - scale
	}
	return m
}

// forward computes the output score and hidden activations.
func (m *mlp) forward(features []float64) (float64, []float64) {
	hidden := make([]float64, m.hiddenSize)
	for i, row := range m.hiddenWeights {
		activation := m.hiddenBias[i]
		for j, w := range row {
			activation += w * features[j]
		}
		hidden[i] = math.Tanh(activation)
	}
	output := m.outputBias
	for i, w := range m.outputWeights {
		output += w * hidden[i]
	}
	score := 1.0 / (1.0 + math.Exp(-output))
	return score, hidden
}

func (m *mlp) predict(features []float64) float64 {
	score, _ := m.forward(features)
	return score
}

// trainStep runs one SGD update and returns the squared-error loss.
func (m *mlp) trainStep(features []float64, target float64) float64 {
	score, hidden := m.forward(features)
	err := score - target
	dOutput := err * score * (1.0 - score)

	gradHidden := make([]float64, m.hiddenSize)
	for i := range gradHidden {
		gradHidden[i] = (1.0 - hidden[i]*hidden[i]) * m.outputWeights[i] * dOutput
	}

	for i := 0; i < m.hiddenSize; i++ {
		m.outputWeights[i] -= m.learningRate * dOutput * hidden[i]
	}
	m.outputBias -= m.learningRate * dOutput

	for i := 0; i < m.hiddenSize; i++ {
		for j := 0; j < m.inputSize; j++ {
			m.hiddenWeights[i][j] -= m.learningRate * gradHidden[i] * features[j]
		}
		m.hiddenBias[i] -= m.learningRate * gradHidden[i]
	}

	return 0.5 * (score - target) * (score - target)
}

// setLinearMapping configures the network as an identity pass-through of the
// first inputSize hidden units with the given output weights, turning the
// net into (approximately) a linear scorer. Used to warm-start from a
// feature-weight map.
func (m *mlp) setLinearMapping(featureWeights []float64, bias float64) {
	for i := 0; i < m.hiddenSize; i++ {
		for j := 0; j < m.inputSize; j++ {
			m.hiddenWeights[i][j] = 0
		}
		if i < m.inputSize {
			m.hiddenWeights[i][i] = 1
		}
		m.hiddenBias[i] = 0
	}
	for i := 0; i < m.hiddenSize; i++ {
		if i < len(featureWeights) {
			m.outputWeights[i] = featureWeights[i]
		} else {
			m.outputWeights[i] = 0
		}
	}
	m.outputBias = bias
}
