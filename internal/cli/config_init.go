package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/storekit/internal/config"
)

// newConfigInitCmd creates the config init command. It writes the default
// configuration to ~/.storekit/config.yaml, or to --path, and drops a
// .gitignore beside it.
func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Initialize configuration file with default values",
		Annotations: map[string]string{annotationSkipConfig: ""},
		Example: `  # Create ~/.storekit/config.yaml
  storekit config init

  # Create a project overlay in the current directory
  storekit config init --path .storekit.yaml

  # Create configuration, overwriting existing
  storekit config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().StringVar(&path, "path", "", "write to this file instead of the default location")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access config path %s: %w", path, err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := config.New().Marshal()
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	created, err := config.EnsureGitignore(dir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", path)
	if created {
		cmd.Printf("Created .gitignore to keep cache and logs out of version control\n")
	}
	return nil
}
