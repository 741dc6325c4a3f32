package commands

import (
	"fmt"

	"github.com/reelverse/upload-service/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample upload-service configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/upload-service/config.yaml. Use --config to specify a
custom path. A random JWT secret is generated for development use.

Examples:
  # Initialize with default location
  upload-service init

  # Initialize with custom path
  upload-service init --config /etc/upload-service/config.yaml

  # Force overwrite existing config
  upload-service init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		configPath, err = config.InitConfigToPath(configFile, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to set your storage bucket and credentials")
	fmt.Println("  2. Start the server with: upload-service serve")
	fmt.Printf("  3. Or specify custom config: upload-service serve --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and set it via the environment:")
	fmt.Println("    export UPLOAD_AUTH_JWT_SECRET=$(openssl rand -hex 32)")

	return nil
}
