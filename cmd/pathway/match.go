package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pathway"
	"github.com/vango-dev/pathway/pkg/inspect"
	"github.com/vango-dev/pathway/pkg/routepath"
	"github.com/vango-dev/pathway/pkg/router"
)

func matchCmd(flags *projectFlags) *cobra.Command {
	var (
		mode   string
		load   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "match <href>",
		Short: "Match a location against the manifest",
		Long: `Match a pathname against the route tree and print the matched
routes and params.

With --load the location is loaded like a server render: manifest data
and redirects run, and the snapshot with its status code is printed.

Examples:
  pathway match /posts/42
  pathway match /docs/missing --mode=root
  pathway match "/posts?page=2" --load`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags, os.Stderr)
			if err != nil {
				return err
			}
			href := args[0]
			out := cmd.OutOrStdout()

			if load {
				opts := p.cfg.RouterOptions(p.log)
				if mode != "" {
					opts.NotFoundMode = router.NotFoundMode(mode)
				}
				r := pathway.NewWithTree(p.tree, opts)
				defer r.Close()
				snap, err := r.Render(cmd.Context(), href)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			if mode == "" {
				mode = p.cfg.Router.NotFoundMode
			}
			trailing, _ := routepath.ParseTrailingSlash(p.cfg.Router.TrailingSlash)
			canon, err := routepath.Canonicalize(href, trailing)
			if err != nil {
				return err
			}
			res := p.tree.MatchLocation(canon.Pathname, router.MatchOptions{NotFoundMode: router.NotFoundMode(mode)})
			info := inspect.MatchInfo{
				Pathname:        canon.Pathname,
				Routes:          make([]string, len(res.Nodes)),
				Params:          res.Params,
				NotFoundRouteID: res.NotFoundRouteID,
			}
			for i, n := range res.Nodes {
				info.Routes[i] = n.ID()
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			for i, id := range info.Routes {
				fmt.Fprintf(out, "%*s%s\n", i*2, "", id)
			}
			for _, name := range slices.Sorted(maps.Keys(info.Params)) {
				fmt.Fprintf(out, "  param %s = %q\n", name, info.Params[name])
			}
			if info.NotFoundRouteID != "" {
				warn("not found, boundary: %s", info.NotFoundRouteID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Not-found mode: fuzzy or root (default from pathway.json)")
	cmd.Flags().BoolVar(&load, "load", false, "Load the location and print its snapshot")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")

	return cmd
}
