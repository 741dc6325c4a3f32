package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/reelverse/upload-service/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the current upload-service configuration.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show default config as YAML
  upload-service config show

  # Show as JSON
  upload-service config show --output json

  # Show specific config file
  upload-service config show --config /etc/upload-service/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	switch showOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(cfg)
	default:
		return fmt.Errorf("unknown output format: %s (want yaml or json)", showOutput)
	}
}
