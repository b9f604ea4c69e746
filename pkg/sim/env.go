// Package sim provides a closed-loop behavioral simulator for exercising
// the brain without hardware or cloud engines.
package sim

import (
	"context"
	"math/rand"

	"github.com/vctlabs/vct/pkg/brain"
)

// DefaultSeed keeps ad-hoc simulations reproducible.
const DefaultSeed = 42

// State describes the dog's internal state.
type State struct {
	Fatigue       float64 `json:"fatigue"`
	Mood          float64 `json:"mood"` // -1 .. 1
	RewardHistory float64 `json:"reward_hist"`
}

// StepOutcome is the environment's response to one action.
type StepOutcome struct {
	State
	Success            bool    `json:"success"`
	Reward             float64 `json:"reward"`
	SuccessProbability float64 `json:"success_probability"`
}

// BrainStepOutcome pairs the brain's decision with the environment response.
type BrainStepOutcome struct {
	Brain brain.Result `json:"brain"`
	State StepOutcome  `json:"state"`
}

// RunSummary is the result of a batch simulation.
type RunSummary struct {
	History     []BrainStepOutcome `json:"history"`
	SuccessRate float64            `json:"success_rate"`
	FinalState  State              `json:"final_state"`
}

// Env advances the dog's internal state in response to scored actions.
type Env struct {
	rng   *rand.Rand
	state State
}

// NewEnv creates an environment with the given seed.
func NewEnv(seed int64) *Env {
	return &Env{
		rng:   rand.New(rand.NewSource(seed)),
		state: State{RewardHistory: 0.5},
	}
}

// Reset returns the environment to a neutral internal state.
func (e *Env) Reset() State {
	e.state = State{RewardHistory: 0.5}
	return e.Observe()
}

// Observe returns a copy of the current state.
func (e *Env) Observe() State {
	return e.state
}

// Step advances the environment after the brain selects an action.
func (e *Env) Step(action string, score float64) StepOutcome {
	fatiguePenalty := 0.25 * e.state.Fatigue
	moodBonus := 0.1 * e.state.Mood
	successP := 0.5 + 0.4*score - fatiguePenalty + moodBonus
	success := e.rng.Float64() < clamp(successP, 0.05, 0.95)

	fatigueGain := 0.05
	if success {
		fatigueGain = 0.1
	}
	e.state.Fatigue = clamp(e.state.Fatigue+fatigueGain, 0, 1)

	moodChange := -0.1 - 0.05*e.state.Fatigue
	if success {
		moodChange = 0.15
	}
	e.state.Mood = clamp(e.state.Mood+moodChange, -1, 1)

	rewardTarget := 0.0
	if success {
		rewardTarget = 1.0
	}
	e.state.RewardHistory = 0.8*e.state.RewardHistory + 0.2*rewardTarget

	return StepOutcome{
		State:              e.state,
		Success:            success,
		Reward:             rewardTarget,
		SuccessProbability: clamp(successP, 0, 1),
	}
}

// RunBrainStep executes one closed-loop interaction: the current state is
// forwarded to the brain so it can reason about mood and fatigue, then the
// chosen action and score feed back into the environment dynamics.
func (e *Env) RunBrainStep(ctx context.Context, b *brain.Brain, command string, confidence, rewardBias float64) (BrainStepOutcome, error) {
	current := e.Observe()
	fatigue := current.Fatigue
	res, err := b.HandleCommand(ctx, brain.Request{
		Text:       command,
		Confidence: confidence,
		RewardBias: rewardBias,
		Mood:       current.Mood,
		Fatigue:    &fatigue,
		Source:     "sim",
	})
	if err != nil {
		return BrainStepOutcome{}, err
	}
	return BrainStepOutcome{
		Brain: res,
		State: e.Step(res.Action, res.Score),
	}, nil
}

// SimulateCommands runs a batch of commands through the closed loop.
func (e *Env) SimulateCommands(ctx context.Context, b *brain.Brain, commands []string, confidence, rewardBias float64) (RunSummary, error) {
	summary := RunSummary{History: make([]BrainStepOutcome, 0, len(commands))}
	successes := 0
	for _, text := range commands {
		outcome, err := e.RunBrainStep(ctx, b, text, confidence, rewardBias)
		if err != nil {
			return RunSummary{}, err
		}
		summary.History = append(summary.History, outcome)
		if outcome.State.Success {
			successes++
		}
	}
	if len(commands) > 0 {
		summary.SuccessRate = float64(successes) / float64(len(commands))
	}
	summary.FinalState = e.Observe()
	return summary, nil
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
