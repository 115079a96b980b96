package main

import (
	"fmt"
	"os"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/config"
	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto/input"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check an app config for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				return fmt.Errorf("--config is required")
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if _, err := input.ParseBindings(cfg.Input.Bindings); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok\n", path)
			for _, r := range cfg.Regions {
				depth := "unbounded"
				if r.MaxDepth > 0 {
					depth = fmt.Sprintf("max depth %d", r.MaxDepth)
				}
				fmt.Fprintf(out, "  region %s (%s)\n", r.Name, depth)
			}
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a starter app config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.DefaultTOML()), 0644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
