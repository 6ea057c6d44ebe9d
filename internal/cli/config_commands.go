package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bioclick/bioclick/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage BioClick configuration",
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigInitCmd())

	return configCmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultPath()
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			fmt.Printf("Config file:     %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Println("                 (not found, showing defaults)")
			}
			fmt.Printf("Engine binary:   %s\n", orUnset(cfg.Engine.BinaryPath))
			fmt.Printf("Remote endpoint: %s\n", cfg.Remote.Endpoint)
			fmt.Printf("Database:        %s\n", cfg.Remote.Database)
			fmt.Printf("E-value:         %s\n", cfg.Remote.EValue)
			fmt.Printf("Output format:   %s\n", cfg.Remote.OutputFormat)
			fmt.Printf("Output folder:   %s\n", cfg.Remote.OutputFolder)
			fmt.Printf("Proxy mode:      %s\n", cfg.Proxy.Mode)
			fmt.Printf("Notifications:   %t\n", cfg.Notifications.Enabled)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
