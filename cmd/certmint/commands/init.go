package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/certforge/certmint/pkg/config"
	"github.com/certforge/certmint/pkg/signer/file"
)

// InitCmd initializes the certmint home directory with a default
// configuration file and, for the file signer, a fresh signing key.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: fmt.Sprintf("Initialize a new %s.%s file", config.ConfigBaseName, config.ConfigExtension),
	Long:  "This command initializes the certmint home directory with a default configuration file and a signing key.",
	RunE: func(cmd *cobra.Command, args []string) error {
		homePath, err := cmd.Flags().GetString(config.FlagRootDir)
		if err != nil {
			return fmt.Errorf("error reading home flag: %w", err)
		}
		if homePath == "" {
			homePath = config.DefaultRootDir()
		}

		configFilePath := config.ConfigPath(homePath)
		if _, err := os.Stat(configFilePath); err == nil {
			return fmt.Errorf("%s already exists in the specified directory", configFilePath)
		}

		cfg := config.DefaultConfig
		cfg.RootDir = homePath

		if err := os.MkdirAll(homePath, config.DefaultDirPerm); err != nil {
			return fmt.Errorf("error creating directory %s: %w", homePath, err)
		}

		if cfg.Signer.SignerType == "file" {
			keyDir := filepath.Join(homePath, cfg.Signer.SignerPath)
			if err := os.MkdirAll(keyDir, config.DefaultDirPerm); err != nil {
				return fmt.Errorf("error creating signer directory: %w", err)
			}
			signer, err := file.CreateFileSigner(keyDir)
			if err != nil {
				return fmt.Errorf("error initializing signer key: %w", err)
			}
			addr, err := signer.Address()
			if err != nil {
				return fmt.Errorf("error deriving signer address: %w", err)
			}
			fmt.Printf("Generated signer key in %s (address %s)\n", keyDir, addr.Hex())
		}

		if err := cfg.SaveAsYaml(); err != nil {
			return fmt.Errorf("error writing YAML configuration file: %w", err)
		}

		fmt.Printf("Initialized %s\n", configFilePath)
		return nil
	},
}
