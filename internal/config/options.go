package config

import (
	"log/slog"

	"github.com/vango-dev/pathway"
	"github.com/vango-dev/pathway/pkg/routepath"
	"github.com/vango-dev/pathway/pkg/router"
)

// RouterOptions converts the router section into pathway.Options. The
// config must have passed Validate.
func (c *Config) RouterOptions(logger *slog.Logger) pathway.Options {
	trailing, _ := routepath.ParseTrailingSlash(c.Router.TrailingSlash)
	return pathway.Options{
		DefaultStaleTime:        pathway.Duration(c.StaleTime()),
		DefaultGCMaxAge:         pathway.Duration(c.GCMaxAge()),
		DefaultPreloadStaleTime: pathway.Duration(c.PreloadStaleTime()),
		DefaultPreloadGCMaxAge:  pathway.Duration(c.PreloadGCMaxAge()),
		NotFoundMode:            router.NotFoundMode(c.Router.NotFoundMode),
		CaseSensitive:           c.Router.CaseSensitive,
		TrailingSlash:           trailing,
		MatchCacheSize:          c.Router.MatchCacheSize,
		MaxRedirects:            c.Router.MaxRedirects,
		Logger:                  logger,
	}
}
