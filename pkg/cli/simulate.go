package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vctlabs/vct/pkg/metrics"
	"github.com/vctlabs/vct/pkg/mode"
	"github.com/vctlabs/vct/pkg/sim"
)

// simulateFlags holds the flag values for the simulate command.
type simulateFlags struct {
	seed       int64
	confidence float64
	rewardBias float64
	jsonOutput bool
}

var simulateFlagVals simulateFlags

// simulateCmd runs a command batch through the closed-loop environment.
// It always uses the offline engines regardless of VCT_SIMULATE, since a
// batch dry run against live hardware makes no sense.
var simulateCmd = &cobra.Command{
	Use:   "simulate [command]...",
	Short: "Run a command batch through the closed-loop dog environment",
	Long: `Feed a sequence of commands through the brain and the simulated dog.
Each step updates the dog's fatigue, mood, and reward history, and those
values feed back into the next decision.`,
	Example: `  # Run a short training session
  vct simulate sit speak sit "lie down"

  # Deterministic run with a fixed seed
  vct simulate --seed 7 sit sit sit

  # Full trace as JSON
  vct simulate --json sit speak`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulate(&simulateFlagVals, args)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	f := &simulateFlagVals
	simulateCmd.Flags().Int64Var(&f.seed, "seed", sim.DefaultSeed, "Random seed for the environment")
	simulateCmd.Flags().Float64Var(&f.confidence, "confidence", 0.85, "Recognition confidence applied to every command")
	simulateCmd.Flags().Float64Var(&f.rewardBias, "reward-bias", 0.5, "Reward bias applied to every command")
	simulateCmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output the full trace in JSON format")
}

func runSimulate(f *simulateFlags, commands []string) error {
	log := newLogger()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	b, err := buildBrain(settings, mode.Simulate, 0, nil, metrics.NewRegistry(), log)
	if err != nil {
		return err
	}

	env := sim.NewEnv(f.seed)
	summary, err := env.SimulateCommands(context.Background(), b, commands, f.confidence, f.rewardBias)
	if err != nil {
		return err
	}

	if f.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	for i, step := range summary.History {
		fmt.Printf("%2d  %-10s score=%.2f rewarded=%-5t success=%-5t fatigue=%.2f mood=%+.2f\n",
			i+1, step.Brain.Action, step.Brain.Score, step.Brain.Rewarded,
			step.State.Success, step.State.Fatigue, step.State.Mood)
	}
	fmt.Printf("success rate: %.0f%%\n", summary.SuccessRate*100)
	return nil
}
