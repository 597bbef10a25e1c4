package main

import (
	"io"
	"log/slog"

	"github.com/vango-dev/pathway/internal/config"
	"github.com/vango-dev/pathway/internal/errors"
	"github.com/vango-dev/pathway/pkg/manifest"
	"github.com/vango-dev/pathway/pkg/router"
)

type projectFlags struct {
	config   string
	manifest string
}

// project is a loaded configuration with its built route tree.
type project struct {
	cfg    *config.Config
	tree   *router.Tree
	log    *slog.Logger
	source string
}

// loadProject reads pathway.json and the manifest it names. Without a
// config file the defaults apply and the manifest resolves against the
// working directory.
func loadProject(flags *projectFlags, logOut io.Writer) (*project, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if errors.Code(err) == "E241" {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	source := cfg.ManifestPath()
	if flags.manifest != "" {
		source = flags.manifest
	}
	m, err := manifest.Load(source)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger(logOut)
	tree, err := m.Build(
		router.WithCaseSensitive(cfg.Router.CaseSensitive),
		router.WithMatchCacheSize(cfg.Router.MatchCacheSize),
		router.WithLogger(log),
	)
	if err != nil {
		return nil, errors.FromError(err, "E251").WithSource(source)
	}
	return &project{cfg: cfg, tree: tree, log: log, source: source}, nil
}
