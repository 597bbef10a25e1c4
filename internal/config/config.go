package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/pathway/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "pathway.json"

	// DefaultManifest is the default route manifest file.
	DefaultManifest = "routes.json"

	// DefaultPort is the default inspect server port.
	DefaultPort = 4100

	// DefaultHost is the default inspect server host.
	DefaultHost = "localhost"

	// DefaultMatchCacheSize is the default number of memoised pathname matches.
	DefaultMatchCacheSize = 512

	// DefaultMaxRedirects bounds redirect chains during one navigation.
	DefaultMaxRedirects = 10
)

// Cache timing defaults.
const (
	DefaultStaleTime        = "0s"
	DefaultGCMaxAge         = "30m"
	DefaultPreloadStaleTime = "30s"
	DefaultPreloadGCMaxAge  = "30m"
)

// Config represents the complete pathway.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Manifest is the path to the route manifest, relative to the config file.
	Manifest string `json:"manifest,omitempty"`

	// Router contains router defaults.
	Router RouterConfig `json:"router,omitempty"`

	// Server contains inspect and render server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Snapshots contains dehydrated snapshot storage settings.
	Snapshots SnapshotConfig `json:"snapshots,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RouterConfig contains router defaults. Durations use time.ParseDuration syntax.
type RouterConfig struct {
	// StaleTime is how long loader data is fresh (e.g., "0s").
	StaleTime string `json:"staleTime,omitempty"`

	// GCMaxAge is how long unused matches stay cached (e.g., "30m").
	GCMaxAge string `json:"gcMaxAge,omitempty"`

	// PreloadStaleTime is how long preloaded data is fresh.
	PreloadStaleTime string `json:"preloadStaleTime,omitempty"`

	// PreloadGCMaxAge is how long unused preloaded matches stay cached.
	PreloadGCMaxAge string `json:"preloadGcMaxAge,omitempty"`

	// NotFoundMode is "fuzzy" or "root".
	NotFoundMode string `json:"notFoundMode,omitempty"`

	// CaseSensitive makes static segments match byte-for-byte.
	CaseSensitive bool `json:"caseSensitive,omitempty"`

	// TrailingSlash is "never", "always" or "preserve".
	TrailingSlash string `json:"trailingSlash,omitempty"`

	// MaxRedirects bounds redirect chains.
	MaxRedirects int `json:"maxRedirects,omitempty"`

	// MatchCacheSize is the number of memoised pathname matches.
	MatchCacheSize int `json:"matchCacheSize,omitempty"`
}

// ServerConfig contains server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Inspect mounts the inspection API.
	Inspect bool `json:"inspect,omitempty"`

	// Metrics mounts the Prometheus /metrics endpoint.
	Metrics bool `json:"metrics,omitempty"`
}

// SnapshotConfig selects where rendered snapshots are stored.
type SnapshotConfig struct {
	// Store is "memory", "disk", "s3" or "none".
	Store string `json:"store,omitempty"`

	// Dir is the snapshot directory for the disk store, relative to the
	// project root.
	Dir string `json:"dir,omitempty"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every S3 object key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region.
	Region string `json:"region,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Manifest: DefaultManifest,
		Router: RouterConfig{
			StaleTime:        DefaultStaleTime,
			GCMaxAge:         DefaultGCMaxAge,
			PreloadStaleTime: DefaultPreloadStaleTime,
			PreloadGCMaxAge:  DefaultPreloadGCMaxAge,
			NotFoundMode:     "fuzzy",
			TrailingSlash:    "never",
			MaxRedirects:     DefaultMaxRedirects,
			MatchCacheSize:   DefaultMatchCacheSize,
		},
		Server: ServerConfig{
			Host:    DefaultHost,
			Port:    DefaultPort,
			Inspect: true,
		},
		Snapshots: SnapshotConfig{
			Store: "memory",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for pathway.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E241").
				WithDetail("No pathway.json found in " + filepath.Dir(path)).
				WithSuggestion("Create pathway.json or pass --manifest explicitly")
		}
		return nil, errors.New("E242").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E242").
			WithDetail("Failed to parse pathway.json: " + err.Error()).
			WithSuggestion("Check that pathway.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E242").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E242").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}

	r := &c.Router
	if r.StaleTime == "" {
		r.StaleTime = DefaultStaleTime
	}
	if r.GCMaxAge == "" {
		r.GCMaxAge = DefaultGCMaxAge
	}
	if r.PreloadStaleTime == "" {
		r.PreloadStaleTime = DefaultPreloadStaleTime
	}
	if r.PreloadGCMaxAge == "" {
		r.PreloadGCMaxAge = DefaultPreloadGCMaxAge
	}
	if r.NotFoundMode == "" {
		r.NotFoundMode = "fuzzy"
	}
	if r.TrailingSlash == "" {
		r.TrailingSlash = "never"
	}
	if r.MaxRedirects == 0 {
		r.MaxRedirects = DefaultMaxRedirects
	}
	if r.MatchCacheSize == 0 {
		r.MatchCacheSize = DefaultMatchCacheSize
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}

	if c.Snapshots.Store == "" {
		c.Snapshots.Store = "memory"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E243").
			WithDetail("server.port must be between 0 and 65535")
	}

	durations := []struct {
		field string
		value string
	}{
		{"router.staleTime", c.Router.StaleTime},
		{"router.gcMaxAge", c.Router.GCMaxAge},
		{"router.preloadStaleTime", c.Router.PreloadStaleTime},
		{"router.preloadGcMaxAge", c.Router.PreloadGCMaxAge},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return errors.New("E243").
				WithDetail(fmt.Sprintf("%s: %q is not a duration", d.field, d.value)).
				WithSuggestion(`Use Go duration syntax such as "30s" or "5m"`)
		}
		if v < 0 {
			return errors.New("E243").WithDetail(d.field + " must not be negative")
		}
	}

	switch c.Router.NotFoundMode {
	case "fuzzy", "root":
	default:
		return errors.New("E243").
			WithDetail(fmt.Sprintf("router.notFoundMode must be \"fuzzy\" or \"root\", got %q", c.Router.NotFoundMode))
	}

	switch c.Router.TrailingSlash {
	case "never", "always", "preserve":
	default:
		return errors.New("E243").
			WithDetail(fmt.Sprintf("router.trailingSlash must be never, always or preserve, got %q", c.Router.TrailingSlash))
	}

	if c.Router.MaxRedirects < 0 {
		return errors.New("E243").WithDetail("router.maxRedirects must not be negative")
	}

	switch c.Snapshots.Store {
	case "memory", "none":
	case "disk":
		if c.Snapshots.Dir == "" {
			return errors.New("E243").
				WithDetail("snapshots.dir is required when snapshots.store is \"disk\"")
		}
	case "s3":
		if c.Snapshots.Bucket == "" {
			return errors.New("E243").
				WithDetail("snapshots.bucket is required when snapshots.store is \"s3\"")
		}
	default:
		return errors.New("E243").
			WithDetail(fmt.Sprintf("snapshots.store must be memory, disk, s3 or none, got %q", c.Snapshots.Store))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("E243").WithDetail(err.Error())
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E243").
			WithDetail(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	return nil
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// StaleTime returns router.staleTime, or 0 if it does not parse.
func (c *Config) StaleTime() time.Duration { return mustDuration(c.Router.StaleTime) }

// GCMaxAge returns router.gcMaxAge.
func (c *Config) GCMaxAge() time.Duration { return mustDuration(c.Router.GCMaxAge) }

// PreloadStaleTime returns router.preloadStaleTime.
func (c *Config) PreloadStaleTime() time.Duration { return mustDuration(c.Router.PreloadStaleTime) }

// PreloadGCMaxAge returns router.preloadGcMaxAge.
func (c *Config) PreloadGCMaxAge() time.Duration { return mustDuration(c.Router.PreloadGCMaxAge) }

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ManifestPath returns the absolute path to the route manifest.
func (c *Config) ManifestPath() string {
	path := c.Manifest
	if path == "" {
		path = DefaultManifest
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
}

// Logger builds a logger writing to w at the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing pathway.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E241").
				WithDetail("No pathway.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create pathway.json at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
