package brain

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ruleEnv is the expression environment reward rules are compiled against.
func ruleEnv(action string, score, sinceRewardS float64) map[string]any {
	return map[string]any{
		"action":         action,
		"score":          score,
		"since_reward_s": sinceRewardS,
	}
}

// Guard decides whether a reward may be dispensed. It enforces the cooldown,
// a minimum policy score, and any configured reward rules.
type Guard struct {
	minScore float64
	cooldown time.Duration
	rules    []compiledRule

	lastReward time.Time
}

type compiledRule struct {
	source  string
	program *vm.Program
}

// NewGuard compiles the reward rules and returns a guard. Each rule is a
// boolean expression over `action`, `score` and `since_reward_s`; all rules
// must hold for a reward to pass.
func NewGuard(minScore float64, cooldown time.Duration, rules []string) (*Guard, error) {
	g := &Guard{
		minScore: minScore,
		cooldown: cooldown,
	}
	for _, rule := range rules {
		program, err := expr.Compile(rule, expr.Env(ruleEnv("", 0, 0)), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid reward rule %q: %w", rule, err)
		}
		g.rules = append(g.rules, compiledRule{source: rule, program: program})
	}
	return g, nil
}

// CanReward reports whether a reward is currently allowed.
func (g *Guard) CanReward(now time.Time, action string, score float64) bool {
	if score < g.minScore {
		return false
	}
	if !g.lastReward.IsZero() && now.Sub(g.lastReward) < g.cooldown {
		return false
	}
	since := g.cooldown.Seconds()
	if !g.lastReward.IsZero() {
		since = now.Sub(g.lastReward).Seconds()
	}
	for _, rule := range g.rules {
		out, err := expr.Run(rule.program, ruleEnv(action, score, since))
		if err != nil {
			// A failing rule denies the reward rather than crashing the command.
			return false
		}
		if allowed, ok := out.(bool); !ok || !allowed {
			return false
		}
	}
	return true
}

// NoteReward records that a reward was dispensed at the given time.
func (g *Guard) NoteReward(now time.Time) {
	g.lastReward = now
}

// LastReward returns when the last reward was dispensed (zero if never).
func (g *Guard) LastReward() time.Time { return g.lastReward }
