package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pathway/pkg/inspect"
)

func routesCmd(flags *projectFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes of the manifest",
		Long: `List every route of the manifest in declaration order with its
full path, parent, rank and params.

Examples:
  pathway routes
  pathway routes --json
  pathway routes -m ./web/routes.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags, os.Stderr)
			if err != nil {
				return err
			}
			routes := inspect.Routes(p.tree)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(routes)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFULL PATH\tPARENT\tRANK\tPARAMS")
			for _, r := range routes {
				fmt.Fprintf(tw, "%s%s\t%s\t%s\t%d\t%s\n",
					strings.Repeat("  ", r.Depth), r.ID, r.FullPath, r.Parent, r.Rank, strings.Join(r.Params, ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print routes as JSON")

	return cmd
}
