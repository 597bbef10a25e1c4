package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func lintCmd(flags *projectFlags) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the manifest for ambiguous routes",
		Long: `Build the route tree and report pairs of routes that match the
same locations with equal specificity. Matching prefers the route
declared last.

With --strict any warning fails the command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags, os.Stderr)
			if err != nil {
				return err
			}
			warnings := p.tree.Lint()
			if len(warnings) == 0 {
				success("%s: %d routes, no warnings", p.source, p.tree.Len())
				return nil
			}
			for _, w := range warnings {
				warn("%s", w)
			}
			if strict {
				return fmt.Errorf("%d lint warnings", len(warnings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when there are warnings")

	return cmd
}
