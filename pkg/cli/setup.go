package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/vctlabs/vct/internal/history"
	"github.com/vctlabs/vct/pkg/actuator"
	"github.com/vctlabs/vct/pkg/api"
	"github.com/vctlabs/vct/pkg/brain"
	"github.com/vctlabs/vct/pkg/config"
	"github.com/vctlabs/vct/pkg/logging"
	"github.com/vctlabs/vct/pkg/metrics"
	"github.com/vctlabs/vct/pkg/mode"
	"github.com/vctlabs/vct/pkg/stt"
	"github.com/vctlabs/vct/pkg/tts"
)

// EnvOpenAIKey is the environment variable holding the OpenAI API key
// required by the live speech engines.
const EnvOpenAIKey = "OPENAI_API_KEY"

// newLogger builds the operational logger from the persistent flags.
func newLogger() *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Format: logging.ParseFormat(logFormat),
		Output: os.Stderr,
	})
}

// loadSettings loads the settings file named by --config, or the defaults
// when no file is given.
func loadSettings() (*config.Settings, error) {
	if configPath == "" {
		return config.DefaultSettings(), nil
	}
	return config.Load(configPath)
}

// resolveMode reads the operating mode from the environment exactly once.
// An unrecognized value falls back to live mode with a warning; it is never
// fatal.
func resolveMode(log *slog.Logger) mode.Mode {
	m, unrecognized := mode.ResolveFromEnv()
	if unrecognized {
		log.Warn("unrecognized value, defaulting to live mode",
			"var", mode.EnvVar, "value", os.Getenv(mode.EnvVar))
	}
	log.Info("operating mode resolved", "mode", m.String())
	return m
}

// validateLivePrerequisites checks that every credential live mode needs is
// present. Called before any listener is bound so a misconfigured live
// deployment fails fast instead of serving half-wired.
func validateLivePrerequisites(requireAPIKey bool) error {
	var missing []string
	if requireAPIKey && os.Getenv(api.EnvAPIKey) == "" {
		missing = append(missing, api.EnvAPIKey)
	}
	if os.Getenv(EnvOpenAIKey) == "" {
		missing = append(missing, EnvOpenAIKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("live mode requires credentials: missing %s (set VCT_SIMULATE=1 to run without them)",
			strings.Join(missing, ", "))
	}
	return nil
}

// buildBrain assembles the brain for the resolved mode. Simulate mode keeps
// the offline defaults; live mode wires the OpenAI speech engines and the
// GPIO treat dispenser.
func buildBrain(settings *config.Settings, m mode.Mode, gpioPin int, rec history.Recorder, reg *metrics.Registry, log *slog.Logger) (*brain.Brain, error) {
	opts := []brain.Option{
		brain.WithLogger(log),
		brain.WithMetrics(reg),
	}
	if rec != nil {
		opts = append(opts, brain.WithRecorder(rec))
	}

	if !m.IsSimulate() {
		apiKey := os.Getenv(EnvOpenAIKey)

		transcriber, err := stt.NewWhisper(stt.WhisperConfig{APIKey: apiKey})
		if err != nil {
			return nil, err
		}
		speaker, err := tts.NewOpenAI(tts.OpenAIConfig{APIKey: apiKey, Logger: log})
		if err != nil {
			return nil, err
		}
		dispenser := actuator.NewGPIO(gpioPin, log)
		if !dispenser.Available() {
			log.Warn("GPIO unavailable, rewards will be simulated", "pin", gpioPin)
		}

		opts = append(opts,
			brain.WithSTT(transcriber),
			brain.WithTTS(speaker),
			brain.WithActuator(dispenser),
		)
	}

	return brain.New(settings, m, opts...)
}

// openRecorder opens the history store at path, or a no-op recorder when
// path is empty.
func openRecorder(path string, log *slog.Logger) (history.Recorder, error) {
	if path == "" {
		return history.Nop{}, nil
	}
	store, err := history.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	log.Info("history store opened", "path", path)
	return store, nil
}
