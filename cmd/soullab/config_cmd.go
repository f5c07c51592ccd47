package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newConfigCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration inspection",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration and where each override came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, label("file", c.meta.Path()))
			sources := c.meta.Sources()
			keys := make([]string, 0, len(sources))
			for key := range sources {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(out, "  %s %s\n", key, gray("("+string(sources[key])+")"))
			}
			return printJSON(out, c.cfg)
		},
	})
	return cmd
}
