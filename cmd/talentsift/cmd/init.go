package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talentsift/talentsift/configs"
	"github.com/talentsift/talentsift/internal/config"
)

var flagInitForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			path = config.DefaultPath()
		}

		if _, err := os.Stat(path); err == nil && !flagInitForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		out.Success(fmt.Sprintf("wrote %s", path))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagInitForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
