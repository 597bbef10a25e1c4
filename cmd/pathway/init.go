package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pathway/internal/config"
	"github.com/vango-dev/pathway/pkg/manifest"
)

const starterManifest = `{
  "routes": [
    {"path": "/"},
    {"path": "posts", "staleTime": "30s",
     "search": [{"name": "page", "type": "int", "default": 1, "check": "value > 0"}]},
    {"path": "$postId", "parent": "/posts"}
  ]
}
`

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default pathway.json and a starter manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if config.Exists(dir) && !force {
				return fmt.Errorf("%s already exists in %s (use --force to overwrite)", config.ConfigFileName, dir)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}

			cfg := config.New()
			if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
				return err
			}
			success("Wrote %s", cfg.Path())

			routes := filepath.Join(dir, manifest.FileName)
			if _, err := os.Stat(routes); err == nil {
				info("kept existing %s", routes)
				return nil
			}
			if err := os.WriteFile(routes, []byte(starterManifest), 0644); err != nil {
				return err
			}
			success("Wrote %s", routes)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing pathway.json")

	return cmd
}
