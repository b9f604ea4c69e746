package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctlabs/vct/pkg/brain"
	"github.com/vctlabs/vct/pkg/config"
	"github.com/vctlabs/vct/pkg/mode"
)

func testBrain(t *testing.T) *brain.Brain {
	t.Helper()
	s := config.DefaultSettings()
	s.CommandsMap = map[string]string{"sit": "SIT", "speak": "BARK"}
	s.Weights = map[string]float64{"stimulus": 2.0}
	b, err := brain.New(s, mode.Simulate)
	require.NoError(t, err)
	return b
}

func TestResetAndObserve(t *testing.T) {
	env := NewEnv(DefaultSeed)
	env.Step("SIT", 0.9)
	state := env.Reset()
	assert.Zero(t, state.Fatigue)
	assert.Zero(t, state.Mood)
	assert.Equal(t, 0.5, state.RewardHistory)
}

func TestStepKeepsStateInBounds(t *testing.T) {
	env := NewEnv(DefaultSeed)
	for i := 0; i < 100; i++ {
		out := env.Step("SIT", 0.9)
		assert.GreaterOrEqual(t, out.Fatigue, 0.0)
		assert.LessOrEqual(t, out.Fatigue, 1.0)
		assert.GreaterOrEqual(t, out.Mood, -1.0)
		assert.LessOrEqual(t, out.Mood, 1.0)
		assert.GreaterOrEqual(t, out.SuccessProbability, 0.0)
		assert.LessOrEqual(t, out.SuccessProbability, 1.0)
	}
	assert.Equal(t, 1.0, env.Observe().Fatigue, "fatigue saturates under constant drilling")
}

func TestStepDeterministicWithSeed(t *testing.T) {
	a := NewEnv(7)
	b := NewEnv(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Step("SIT", 0.8), b.Step("SIT", 0.8), "step %d", i)
	}
}

func TestRunBrainStepFeedsStateToBrain(t *testing.T) {
	env := NewEnv(DefaultSeed)
	b := testBrain(t)

	out, err := env.RunBrainStep(context.Background(), b, "sit", 0.85, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "SIT", out.Brain.Action)
	assert.Greater(t, out.State.SuccessProbability, 0.0)
}

func TestSimulateCommands(t *testing.T) {
	env := NewEnv(DefaultSeed)
	b := testBrain(t)

	commands := []string{"sit", "speak", "sit", "fetch"}
	summary, err := env.SimulateCommands(context.Background(), b, commands, 0.85, 0.5)
	require.NoError(t, err)
	require.Len(t, summary.History, len(commands))
	assert.GreaterOrEqual(t, summary.SuccessRate, 0.0)
	assert.LessOrEqual(t, summary.SuccessRate, 1.0)
	assert.Equal(t, "NONE", summary.History[3].Brain.Action)
	assert.Greater(t, summary.FinalState.Fatigue, 0.0)
}

func TestSimulateCommandsEmpty(t *testing.T) {
	env := NewEnv(DefaultSeed)
	summary, err := env.SimulateCommands(context.Background(), testBrain(t), nil, 0.85, 0.5)
	require.NoError(t, err)
	assert.Zero(t, summary.SuccessRate)
	assert.Empty(t, summary.History)
}
