package pathway

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vango-dev/pathway/pkg/history"
	"github.com/vango-dev/pathway/pkg/loader"
	"github.com/vango-dev/pathway/pkg/routepath"
	"github.com/vango-dev/pathway/pkg/router"
	"github.com/vango-dev/pathway/pkg/scroll"
)

// DefaultMaxRedirects bounds redirect chains when Options.MaxRedirects is zero.
const DefaultMaxRedirects = 10

// =============================================================================
// Router Options
// =============================================================================

// Options configures a Router. The zero value is usable.
type Options struct {
	// DefaultStaleTime is how long loader data stays fresh. Default: 0.
	DefaultStaleTime *time.Duration

	// DefaultGCMaxAge is how long unused records stay cached. Default: 30m.
	DefaultGCMaxAge *time.Duration

	// DefaultPreloadStaleTime is how long preloaded data stays fresh.
	// Default: 30s.
	DefaultPreloadStaleTime *time.Duration

	// DefaultPreloadGCMaxAge is how long unused preloaded records stay
	// cached. Default: 30m.
	DefaultPreloadGCMaxAge *time.Duration

	// NotFoundMode picks the route that handles unmatched locations.
	// Default: router.NotFoundFuzzy.
	NotFoundMode router.NotFoundMode

	// CaseSensitive makes static segments match case-sensitively.
	CaseSensitive bool

	// TrailingSlash is the canonical form of built and loaded pathnames.
	TrailingSlash routepath.TrailingSlash

	// MatchCacheSize bounds the pathname match memo. Zero means
	// router.DefaultMatchCacheSize.
	MatchCacheSize int

	// MaxRedirects bounds redirect chains. Zero means DefaultMaxRedirects.
	MaxRedirects int

	// Context is the base context every route's context builds on.
	Context map[string]any

	// History is the location stack. Nil means a memory history at "/".
	History history.History

	// Clock drives staleness and eviction. Nil means the wall clock.
	Clock clock.Clock

	// Logger is the structured logger for the router.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Interceptors wrap every lazy, beforeLoad and loader call.
	Interceptors []loader.Interceptor

	// Scroll restores scroll positions per history entry onto ScrollTarget.
	// Both must be set for restoration to run.
	Scroll       *scroll.Manager
	ScrollTarget scroll.Target
}

func (o Options) maxRedirects() int {
	if o.MaxRedirects <= 0 {
		return DefaultMaxRedirects
	}
	return o.MaxRedirects
}

func (o Options) notFoundMode() router.NotFoundMode {
	if o.NotFoundMode == "" {
		return router.NotFoundFuzzy
	}
	return o.NotFoundMode
}
