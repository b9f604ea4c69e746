package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vctlabs/vct/internal/history"
)

// logsFlags holds the flag values for the logs command.
type logsFlags struct {
	historyDB  string
	limit      int
	jsonOutput bool
}

var logsFlagVals logsFlags

// logsCmd shows recent handled commands from the history store.
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recently handled commands",
	Example: `  # Show the last 20 commands
  vct logs --history-db vct-history.db

  # Show the last 50 as JSON
  vct logs --history-db vct-history.db -n 50 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogs(&logsFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)

	f := &logsFlagVals
	logsCmd.Flags().StringVar(&f.historyDB, "history-db", "", "Path to the SQLite history store")
	logsCmd.Flags().IntVarP(&f.limit, "limit", "n", 20, "Number of entries to show")
	logsCmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output in JSON format")
}

func runLogs(f *logsFlags) error {
	if f.historyDB == "" {
		return fmt.Errorf("logs requires --history-db")
	}

	store, err := history.OpenSQLite(f.historyDB)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), f.limit)
	if err != nil {
		return err
	}

	if f.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("no commands recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tTEXT\tACTION\tSCORE\tREWARDED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%t\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Source, e.Text, e.Action, e.Score, e.Rewarded)
	}
	return w.Flush()
}
