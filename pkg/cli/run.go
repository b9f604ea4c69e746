package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vctlabs/vct/pkg/brain"
	"github.com/vctlabs/vct/pkg/metrics"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	cmdText    string
	wavPath    string
	gpioPin    int
	historyDB  string
	jsonOutput bool
}

var runFlagVals runFlags

// runCmd handles a single command end to end and exits.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Handle one command and exit",
	Long: `Handle a single command through the full pipeline: resolve the action,
score it with the behavior policy, speak the feedback, and dispense a
reward if the guard allows it.

The command is given as text with --cmd or as a WAV recording with --wav.
In simulate mode the WAV is transcribed by the offline rule-based engine.`,
	Example: `  # Typed command in simulate mode
  VCT_SIMULATE=1 vct run --cmd sit

  # Transcribe and handle a recording
  VCT_SIMULATE=1 vct run --wav clips/sit_01.wav

  # JSON output for scripting
  VCT_SIMULATE=1 vct run --cmd sit --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(&runFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := &runFlagVals
	runCmd.Flags().StringVar(&f.cmdText, "cmd", "", "Command text to handle")
	runCmd.Flags().StringVar(&f.wavPath, "wav", "", "Path to a WAV recording to transcribe and handle")
	runCmd.Flags().IntVar(&f.gpioPin, "gpio-pin", 18, "GPIO pin driving the treat dispenser (live mode)")
	runCmd.Flags().StringVar(&f.historyDB, "history-db", "", "Path to the SQLite history store (empty = history disabled)")
	runCmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output the result in JSON format")
}

func runOnce(f *runFlags) error {
	if (f.cmdText == "") == (f.wavPath == "") {
		return fmt.Errorf("exactly one of --cmd or --wav is required")
	}

	log := newLogger()
	m := resolveMode(log)
	if !m.IsSimulate() {
		if err := validateLivePrerequisites(false); err != nil {
			return err
		}
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	rec, err := openRecorder(f.historyDB, log)
	if err != nil {
		return err
	}
	defer rec.Close()

	b, err := buildBrain(settings, m, f.gpioPin, rec, metrics.NewRegistry(), log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var result brain.Result
	if f.wavPath != "" {
		result, err = b.RunOnceFromWAV(ctx, f.wavPath)
	} else {
		req := brain.DefaultRequest(f.cmdText)
		req.Source = "cli"
		result, err = b.HandleCommand(ctx, req)
	}
	if err != nil {
		return err
	}

	if f.jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	fmt.Printf("action=%s score=%.2f rewarded=%t\n", result.Action, result.Score, result.Rewarded)
	return nil
}
