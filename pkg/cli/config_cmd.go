package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vctlabs/vct/pkg/config"
)

var (
	configShowJSON bool
	configSetType  string
)

// configCmd groups the settings subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the trainer settings",
}

// configShowCmd displays the resolved settings.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved settings",
	Long: `Display the settings after loading the file named by --config and
applying defaults and normalization. With no --config the built-in
defaults are shown.`,
	Example: `  # Show the defaults
  vct config show

  # Show a settings file as JSON
  vct config show -c settings.yaml --as-json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if configShowJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		}
		return yaml.NewEncoder(os.Stdout).Encode(settings)
	},
}

// configSetCmd sets one value by dotted key path and saves the file.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one settings value by dotted key path",
	Long: `Set a single value in the settings file named by --config. The key is a
dotted path into the settings document; the value is parsed according to
--type. The file is rewritten atomically.`,
	Example: `  # Raise the reward threshold
  vct config set -c settings.yaml min_reward_score 0.7 --type float

  # Map a new phrase to an action
  vct config set -c settings.yaml commands_map.spin SPIN

  # Replace the reward triggers wholesale
  vct config set -c settings.yaml reward_triggers '{"SIT": true}' --type json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return fmt.Errorf("config set requires --config")
		}

		settings, err := config.Load(configPath)
		if err != nil {
			return err
		}

		value, err := config.ParseTypedValue(args[1], configSetType)
		if err != nil {
			return err
		}
		updated, err := config.ApplyKeyPath(settings, config.SplitKeyPath(args[0]), value)
		if err != nil {
			return err
		}
		if err := config.Save(configPath, updated); err != nil {
			return err
		}

		fmt.Printf("set %s = %v in %s\n", args[0], value, configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)

	configShowCmd.Flags().BoolVar(&configShowJSON, "as-json", false, "Output in JSON format (default: YAML)")
	configSetCmd.Flags().StringVar(&configSetType, "type", "str", "Value type (str, int, float, bool, json)")
}
