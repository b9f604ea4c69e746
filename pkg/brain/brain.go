// Package brain wires speech recognition, the behavior policy, the reward
// guard and the actuator into the command-handling core of the service.
package brain

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/vctlabs/vct/internal/history"
	"github.com/vctlabs/vct/pkg/actuator"
	"github.com/vctlabs/vct/pkg/behavior"
	"github.com/vctlabs/vct/pkg/config"
	"github.com/vctlabs/vct/pkg/logging"
	"github.com/vctlabs/vct/pkg/metrics"
	"github.com/vctlabs/vct/pkg/mode"
	"github.com/vctlabs/vct/pkg/stt"
	"github.com/vctlabs/vct/pkg/tts"
)

// rewardHold is how long the actuator is held open per reward.
const rewardHold = 400 * time.Millisecond

// Request is one spoken or typed command for the brain to act on.
type Request struct {
	Text       string
	Confidence float64
	RewardBias float64
	Mood       float64

	// Fatigue overrides the derived fatigue value when non-nil.
	Fatigue *float64

	// Source labels where the command came from (api, cli, sim).
	Source string
}

// DefaultRequest returns a request for text with the standard confidence
// and reward bias applied.
func DefaultRequest(text string) Request {
	return Request{
		Text:       text,
		Confidence: 0.85,
		RewardBias: 0.5,
	}
}

// Result is the brain's decision for one command.
type Result struct {
	Action   string  `json:"action"`
	Score    float64 `json:"score"`
	Rewarded bool    `json:"rewarded"`
}

// Brain resolves commands to actions, scores them with the behavior policy,
// and gates reward dispensing. The operating mode is fixed at construction;
// nothing in the brain consults the environment afterwards.
type Brain struct {
	settings *config.Settings
	mode     mode.Mode
	policy   *behavior.Policy
	guard    *Guard

	stt      stt.Engine
	tts      tts.Engine
	actuator actuator.Actuator
	recorder history.Recorder
	metrics  *metrics.Registry
	log      *slog.Logger

	now func() time.Time

	mu           sync.Mutex
	lastRewardAt time.Time
}

// Option customizes a Brain.
type Option func(*Brain)

// WithSTT overrides the speech-to-text engine.
func WithSTT(engine stt.Engine) Option {
	return func(b *Brain) { b.stt = engine }
}

// WithTTS overrides the text-to-speech engine.
func WithTTS(engine tts.Engine) Option {
	return func(b *Brain) { b.tts = engine }
}

// WithActuator overrides the reward actuator.
func WithActuator(a actuator.Actuator) Option {
	return func(b *Brain) { b.actuator = a }
}

// WithRecorder sets the command history recorder.
func WithRecorder(r history.Recorder) Option {
	return func(b *Brain) { b.recorder = r }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(b *Brain) { b.metrics = m }
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Brain) {
		if log != nil {
			b.log = log
		}
	}
}

// New creates a Brain for the given settings and operating mode. The
// defaults are the simulate-safe engines (rule-based STT, console TTS,
// simulated actuator); live deployments inject their engines via options.
func New(settings *config.Settings, m mode.Mode, opts ...Option) (*Brain, error) {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	cooldown := time.Duration(settings.RewardCooldownS * float64(time.Second))
	guard, err := NewGuard(settings.MinRewardScore, cooldown, settings.RewardRules)
	if err != nil {
		return nil, err
	}

	b := &Brain{
		settings: settings,
		mode:     m,
		policy:   behavior.NewPolicy(settings.PolicyConfig()),
		guard:    guard,
		stt:      stt.NewRuleBased(nil),
		tts:      tts.NewConsole(nil, ""),
		recorder: history.Nop{},
		log:      logging.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.actuator == nil {
		b.actuator = actuator.NewSimulated(b.log)
	}
	return b, nil
}

// Mode returns the operating mode the brain was constructed with.
func (b *Brain) Mode() mode.Mode { return b.mode }

// phraseSeparators collapses whitespace, underscores and hyphens so that
// "lie down", "lie_down" and "lie-down" all match the same command.
var phraseSeparators = regexp.MustCompile(`[\s_\-]+`)

func normalizePhrase(v string) string {
	return phraseSeparators.ReplaceAllString(strings.ToLower(v), "")
}

// ActionForText resolves the configured action for a spoken phrase.
// Unknown phrases resolve to "NONE".
func (b *Brain) ActionForText(text string) string {
	normalized := normalizePhrase(text)
	for phrase, action := range b.settings.CommandsMap {
		if phrase == "" {
			continue
		}
		if strings.Contains(normalized, normalizePhrase(phrase)) {
			return action
		}
	}
	return "NONE"
}

// HandleCommand scores the command, optionally dispenses a reward, speaks
// feedback, and records the outcome.
func (b *Brain) HandleCommand(ctx context.Context, req Request) (Result, error) {
	action := b.ActionForText(req.Text)
	now := b.now()

	b.mu.Lock()
	cooldown := time.Duration(b.settings.RewardCooldownS * float64(time.Second))
	sinceReward := cooldown
	if !b.lastRewardAt.IsZero() {
		sinceReward = now.Sub(b.lastRewardAt)
	}
	b.mu.Unlock()

	var fatigue float64
	if req.Fatigue != nil {
		fatigue = clamp01(*req.Fatigue)
	} else {
		denom := cooldown.Seconds() * 2.0
		if denom < 1.0 {
			denom = 1.0
		}
		fatigue = clamp01(sinceReward.Seconds() / denom)
	}

	stimulus := 0.0
	if action != "NONE" {
		stimulus = 1.0
	}

	inputs := behavior.Inputs{
		Stimulus:                stimulus,
		Confidence:              req.Confidence,
		RewardBias:              req.RewardBias,
		Mood:                    req.Mood,
		Stress:                  clamp01(1.0 - req.Confidence),
		Fatigue:                 fatigue,
		EnvironmentalComplexity: b.contextValue("complexity"),
		SocialEngagement:        b.contextValue("social_engagement"),
	}

	vec := b.policy.Decide(action, inputs)
	rewarded := b.maybeReward(vec.Action, vec.Score, now)

	feedback := fmt.Sprintf("action=%s score=%.2f", vec.Action, vec.Score)
	if rewarded {
		feedback += " rewarded"
	}
	if err := b.tts.Speak(ctx, feedback); err != nil {
		b.log.WarnContext(ctx, "failed to speak feedback", "error", err)
	}
	b.log.InfoContext(ctx, "command handled",
		"action", vec.Action, "score", vec.Score, "rewarded", rewarded)

	source := req.Source
	if source == "" {
		source = "cli"
	}
	if b.metrics != nil {
		b.metrics.RecordCommand(source)
		b.metrics.RecordReward(vec.Action, rewarded)
	}
	if err := b.recorder.Record(ctx, history.Entry{
		Time:          now,
		Source:        source,
		Text:          req.Text,
		Action:        vec.Action,
		Score:         vec.Score,
		Rewarded:      rewarded,
		CorrelationID: logging.CorrelationID(ctx),
	}); err != nil {
		b.log.WarnContext(ctx, "failed to record command", "error", err)
	}

	return Result{Action: vec.Action, Score: vec.Score, Rewarded: rewarded}, nil
}

// RunOnceFromWAV transcribes the clip and handles the recognized command.
// A failing transcription engine is replaced with the rule-based fallback
// for the rest of the process lifetime.
func (b *Brain) RunOnceFromWAV(ctx context.Context, wavPath string) (Result, error) {
	b.mu.Lock()
	engine := b.stt
	b.mu.Unlock()

	text, err := engine.Transcribe(ctx, wavPath)
	if err != nil {
		b.log.WarnContext(ctx, "transcription failed, switching to rule-based fallback",
			"engine", engine.Name(), "error", err)
		fallback := stt.NewRuleBased(nil)
		b.mu.Lock()
		b.stt = fallback
		b.mu.Unlock()
		if text, err = fallback.Transcribe(ctx, wavPath); err != nil {
			return Result{Action: "NONE"}, err
		}
	}
	if text == "" {
		if err := b.tts.Speak(ctx, "command not recognized"); err != nil {
			b.log.WarnContext(ctx, "failed to speak feedback", "error", err)
		}
		return Result{Action: "NONE"}, nil
	}
	req := DefaultRequest(text)
	return b.HandleCommand(ctx, req)
}

// maybeReward gates the dispenser on the trigger map and the guard.
func (b *Brain) maybeReward(action string, score float64, now time.Time) bool {
	if !b.settings.RewardTriggers[action] {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.guard.CanReward(now, action, score) {
		return false
	}
	if err := b.actuator.Trigger(rewardHold); err != nil {
		b.log.Warn("reward actuator failed", "action", action, "error", err)
		return false
	}
	b.guard.NoteReward(now)
	b.lastRewardAt = now
	return true
}

func (b *Brain) contextValue(key string) float64 {
	if v, ok := b.settings.EnvironmentContext[key]; ok {
		return clamp01(v)
	}
	return 0.5
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
