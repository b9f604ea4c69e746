package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
latency_budget_ms: 250
reward_cooldown_s: 2.5
commands_map:
  " Sit ": sit
  '"speak"': bark
reward_triggers:
  sit: true
environment_context:
  complexity: 0.7
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, s.LatencyBudgetMS)
	assert.Equal(t, 2.5, s.RewardCooldownS)
	assert.Equal(t, DefaultMinRewardScore, s.MinRewardScore)
	assert.Equal(t, "SIT", s.CommandsMap["sit"])
	assert.Equal(t, "BARK", s.CommandsMap["speak"])
	assert.True(t, s.RewardTriggers["SIT"])
	assert.Equal(t, 0.7, s.EnvironmentContext["complexity"])
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "commands_map": {"come here": "come"},
  "weights": {"stimulus": 0.4}
}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "COME", s.CommandsMap["come here"])
	assert.Equal(t, DefaultLatencyBudgetMS, s.LatencyBudgetMS)
	assert.Equal(t, 0.4, s.Weights["stimulus"])
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
latency_budget_ms = 100

[commands_map]
down = "down"
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, s.LatencyBudgetMS)
	assert.Equal(t, "DOWN", s.CommandsMap["down"])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	empty := writeFile(t, "empty.yaml", "   \n")
	_, err = Load(empty)
	assert.ErrorIs(t, err, ErrEmptyFile)

	bad := writeFile(t, "config.ini", "latency_budget_ms=1")
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	badYAML := writeFile(t, "broken.yaml", "commands_map: [unclosed")
	_, err = Load(badYAML)
	assert.Error(t, err)
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	// An explicit zero is a real value (no cooldown, no score floor), not
	// a request for the default.
	path := writeFile(t, "config.yaml", `
reward_cooldown_s: 0
min_reward_score: 0
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, s.RewardCooldownS)
	assert.Zero(t, s.MinRewardScore)
	assert.Equal(t, DefaultLatencyBudgetMS, s.LatencyBudgetMS, "absent keys still default")
}

func TestLoadRejectsNegativeBudget(t *testing.T) {
	path := writeFile(t, "config.yaml", "latency_budget_ms: -1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.yaml", "out.json", "out.toml"} {
		s := DefaultSettings()
		s.CommandsMap = map[string]string{"sit": "SIT"}
		s.RewardTriggers = map[string]bool{"SIT": true}

		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, s), name)

		loaded, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, s.CommandsMap, loaded.CommandsMap, name)
		assert.Equal(t, s.LatencyBudgetMS, loaded.LatencyBudgetMS, name)
	}
}

func TestPolicyConfigPrecedence(t *testing.T) {
	s := &Settings{
		Weights:        map[string]float64{"stimulus": 0.4},
		Policy:         map[string]any{"learning_rate": 0.1},
		BehaviorPolicy: map[string]any{"learning_rate": 0.2},
	}
	assert.Equal(t, 0.2, s.PolicyConfig()["learning_rate"])

	s.BehaviorPolicy = nil
	assert.Equal(t, 0.1, s.PolicyConfig()["learning_rate"])

	s.Policy = nil
	assert.Equal(t, 0.4, s.PolicyConfig()["stimulus"])

	s.Weights = nil
	assert.Empty(t, s.PolicyConfig())
}
