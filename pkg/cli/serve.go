package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vctlabs/vct/pkg/api"
	"github.com/vctlabs/vct/pkg/metrics"
)

// serveFlags holds the flag values for the serve command.
type serveFlags struct {
	port      int
	gpioPin   int
	historyDB string
	noAuth    bool
}

var serveFlagVals serveFlags

// serveCmd represents the serve command, the foreground API server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trainer API server (foreground)",
	Long: `Start the trainer API server.

The operating mode is read from VCT_SIMULATE once at startup. In live mode
the server refuses to start until VCT_API_KEY and OPENAI_API_KEY are set;
in simulate mode no credentials or hardware are needed.`,
	Example: `  # Start in simulate mode
  VCT_SIMULATE=1 vct serve

  # Start in live mode with credentials
  VCT_API_KEY=... OPENAI_API_KEY=... vct serve --gpio-pin 18

  # Custom port and settings file
  VCT_SIMULATE=1 vct serve --port 3000 --config settings.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(&serveFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 8000, "HTTP server port")
	serveCmd.Flags().IntVar(&f.gpioPin, "gpio-pin", 18, "GPIO pin driving the treat dispenser (live mode)")
	serveCmd.Flags().StringVar(&f.historyDB, "history-db", "", "Path to the SQLite history store (empty = history disabled)")
	serveCmd.Flags().BoolVar(&f.noAuth, "no-auth", false, "Disable API key authentication")
}

func runServe(f *serveFlags) error {
	log := newLogger()

	// Mode is resolved exactly once; everything downstream receives it as
	// a value and never re-reads the environment.
	m := resolveMode(log)

	// Live prerequisites are checked before any resource is acquired so a
	// misconfigured deployment exits nonzero without ever binding the port.
	if !m.IsSimulate() {
		if err := validateLivePrerequisites(!f.noAuth); err != nil {
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
	defer func() {
		if err := rec.Close(); err != nil {
			log.Warn("error closing history store", "error", err)
		}
	}()

	reg := metrics.NewRegistry()
	b, err := buildBrain(settings, m, f.gpioPin, rec, reg, log)
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithLogger(log),
		api.WithVersion(Version),
		api.WithMetrics(reg),
		api.WithRecorder(rec),
	}
	if f.noAuth {
		opts = append(opts, api.WithAuthDisabled())
	}

	srv, err := api.New(f.port, b, opts...)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())

	return srv.Stop()
}
