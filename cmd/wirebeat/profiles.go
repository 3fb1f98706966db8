package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/uniyakcom/wirebeat/platform"
)

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List built-in and configured platform profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tORDER\tSHORT\tINT\tLONG\tFLOAT\tDOUBLE\tCHAR")
			for _, name := range platform.Names() {
				p, _ := platform.Lookup(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
					name, p.Order, p.Short, p.Int, p.Long, p.Float, p.Double, p.Char)
			}
			return w.Flush()
		},
	}
}
