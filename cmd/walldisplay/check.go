package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate config and menu data without opening a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := prepare(global)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Menu directory: %s\n", global.dir)
			fmt.Fprintf(out, "Fullscreen: %t, menu width: %d, fps: %d\n",
				st.cfg.Window.Fullscreen, st.cfg.Window.MenuWidth, st.cfg.Window.FPS)
			fmt.Fprintf(out, "Categories (%d enabled):\n", st.reg.Len())
			for _, c := range st.reg.Categories() {
				n := len(st.catalog.Paths(c.ID))
				marker := ""
				if n == 0 {
					marker = "  (empty)"
				}
				fmt.Fprintf(out, "  [%d] %s (%s): %d images%s\n", c.ID, c.Name, c.Dir, n, marker)
			}
			fmt.Fprintf(out, "Total images: %d\n", st.catalog.Total())
			return nil
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
