// Package config provides the validated settings model for the VCT service.
package config

import (
	"fmt"
	"strings"
)

// Default values applied when a field is absent from the configuration file.
const (
	DefaultLatencyBudgetMS = 300
	DefaultRewardCooldownS = 3.0
	DefaultMinRewardScore  = 0.55
)

// Settings is the validated configuration for the brain and its engines.
type Settings struct {
	// LatencyBudgetMS is the per-command latency budget in milliseconds.
	LatencyBudgetMS int `json:"latency_budget_ms" yaml:"latency_budget_ms" toml:"latency_budget_ms"`

	// RewardCooldownS is the minimum time between reward triggers, in seconds.
	RewardCooldownS float64 `json:"reward_cooldown_s" yaml:"reward_cooldown_s" toml:"reward_cooldown_s"`

	// MinRewardScore is the minimum policy score required for a reward.
	MinRewardScore float64 `json:"min_reward_score" yaml:"min_reward_score" toml:"min_reward_score"`

	// Weights is a bare feature-weight map (legacy policy configuration).
	Weights map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty" toml:"weights,omitempty"`

	// BehaviorPolicy is the full policy configuration block.
	BehaviorPolicy map[string]any `json:"behavior_policy,omitempty" yaml:"behavior_policy,omitempty" toml:"behavior_policy,omitempty"`

	// Policy is an older name for BehaviorPolicy, kept for existing configs.
	Policy map[string]any `json:"policy,omitempty" yaml:"policy,omitempty" toml:"policy,omitempty"`

	// CommandsMap maps spoken phrases to actions (e.g. "sit" -> "SIT").
	CommandsMap map[string]string `json:"commands_map,omitempty" yaml:"commands_map,omitempty" toml:"commands_map,omitempty"`

	// RewardTriggers marks which actions are eligible for a reward.
	RewardTriggers map[string]bool `json:"reward_triggers,omitempty" yaml:"reward_triggers,omitempty" toml:"reward_triggers,omitempty"`

	// RewardRules are boolean expressions evaluated before every reward.
	// Each rule sees `action`, `score` and `since_reward_s`; all must be true.
	RewardRules []string `json:"reward_rules,omitempty" yaml:"reward_rules,omitempty" toml:"reward_rules,omitempty"`

	// EnvironmentContext provides ambient feature values for the policy
	// (e.g. complexity, social_engagement).
	EnvironmentContext map[string]float64 `json:"environment_context,omitempty" yaml:"environment_context,omitempty" toml:"environment_context,omitempty"`

	// MoodInitial is the starting mood label, if any.
	MoodInitial string `json:"mood_initial,omitempty" yaml:"mood_initial,omitempty" toml:"mood_initial,omitempty"`
}

// DefaultSettings returns settings with all defaults applied and no
// commands configured.
func DefaultSettings() *Settings {
	return &Settings{
		LatencyBudgetMS: DefaultLatencyBudgetMS,
		RewardCooldownS: DefaultRewardCooldownS,
		MinRewardScore:  DefaultMinRewardScore,
	}
}

// PolicyConfig returns the configuration map for the behavior policy.
// Precedence: behavior_policy, then policy, then a bare weights map.
func (s *Settings) PolicyConfig() map[string]any {
	if s.BehaviorPolicy != nil {
		return s.BehaviorPolicy
	}
	if s.Policy != nil {
		return s.Policy
	}
	if len(s.Weights) > 0 {
		cfg := make(map[string]any, len(s.Weights))
		for k, v := range s.Weights {
			cfg[k] = v
		}
		return cfg
	}
	return map[string]any{}
}

// Normalize validates the settings and canonicalizes command and trigger
// maps in place. It is called by Load and must be re-run after any
// programmatic mutation.
func (s *Settings) Normalize() error {
	if s.LatencyBudgetMS < 0 {
		return fmt.Errorf("latency_budget_ms must be >= 0, got %d", s.LatencyBudgetMS)
	}
	if s.RewardCooldownS < 0 {
		return fmt.Errorf("reward_cooldown_s must be >= 0, got %g", s.RewardCooldownS)
	}
	if s.MinRewardScore < 0 || s.MinRewardScore > 1 {
		return fmt.Errorf("min_reward_score must be in [0,1], got %g", s.MinRewardScore)
	}

	if s.CommandsMap != nil {
		normalized := make(map[string]string, len(s.CommandsMap))
		for phrase, action := range s.CommandsMap {
			key := strings.TrimSpace(phrase)
			key = strings.Trim(key, `'"`)
			if key == "" {
				return fmt.Errorf("commands_map keys must be non-empty strings")
			}
			act := strings.ToUpper(strings.TrimSpace(action))
			if act == "" {
				act = "NONE"
			}
			normalized[strings.ToLower(key)] = act
		}
		s.CommandsMap = normalized
	}

	if s.RewardTriggers != nil {
		normalized := make(map[string]bool, len(s.RewardTriggers))
		for action, enabled := range s.RewardTriggers {
			normalized[strings.ToUpper(strings.TrimSpace(action))] = enabled
		}
		s.RewardTriggers = normalized
	}

	return nil
}
