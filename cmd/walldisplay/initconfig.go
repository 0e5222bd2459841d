package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oukeidos/walldisplay/internal/config"
	"github.com/oukeidos/walldisplay/internal/files"
)

func newInitConfigCmd(global *globalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a config file with every option at its default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := global.configPath
			data, err := config.Encode(config.Default(), config.FormatOf(path))
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			if err := files.WriteAtomic(path, data, 0o644, force); err != nil {
				if errors.Is(err, files.ErrExists) {
					return fmt.Errorf("%w (use --force to replace it)", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing file")
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
