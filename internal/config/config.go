// Package config loads the immutable startup configuration for issuedash.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Command-line flags are applied by cmd/issuedash on
// top of the returned value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	GitHubTokenEnv = "GITHUB_TOKEN"
	RepoEnv        = "ISSUEDASH_REPO"
	EndpointEnv    = "ISSUEDASH_API_ENDPOINT"
	TimeoutEnv     = "ISSUEDASH_TIMEOUT"
	PageSizeEnv    = "ISSUEDASH_PAGE_SIZE"
	LogFileEnv     = "ISSUEDASH_LOG_FILE"
	LogLevelEnv    = "ISSUEDASH_LOG_LEVEL"
	ConfigFileEnv  = "ISSUEDASH_CONFIG"
)

// DefaultEndpoint is GitHub's GraphQL API.
const DefaultEndpoint = "https://api.github.com/graphql"

// ErrMissingToken is returned by Validate when no API token is configured.
var ErrMissingToken = errors.New("config: missing API token")

// ErrMissingRepo is returned by Validate when no repository is configured.
var ErrMissingRepo = errors.New("config: missing repository")

// Features toggles optional behaviour.
type Features struct {
	// Preview enables the markdown preview pane in the comment editor.
	Preview bool `yaml:"preview"`
	// Reactions enables the lazily fetched reaction overlay.
	Reactions bool `yaml:"reactions"`
	// Hyperlinks emits OSC 8 hyperlinks for markdown links.
	Hyperlinks bool `yaml:"hyperlinks"`
}

// Config is the immutable configuration handed to the App at startup.
type Config struct {
	Token       string        `yaml:"-"`
	Owner       string        `yaml:"owner"`
	Repo        string        `yaml:"repo"`
	APIEndpoint string        `yaml:"api_endpoint"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rate_limit"`
	PageSize    int           `yaml:"page_size"`
	LogFile     string        `yaml:"log_file"`
	LogLevel    string        `yaml:"log_level"`
	// Width and Height are the initial viewport used before the first
	// resize event arrives.
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
	CacheSize int      `yaml:"cache_size"`
	Theme     string   `yaml:"code_theme"`
	Features  Features `yaml:"features"`
}

// For mocking in tests.
var (
	osUserConfigDir = os.UserConfigDir
	osUserCacheDir  = os.UserCacheDir
	lookupEnv       = os.LookupEnv
)

// Default returns the built-in configuration.
func Default() Config {
	logFile := "issuedash.log"
	if dir, err := osUserCacheDir(); err == nil {
		logFile = filepath.Join(dir, "issuedash", "issuedash.log")
	}
	return Config{
		APIEndpoint: DefaultEndpoint,
		Timeout:     30 * time.Second,
		RateLimit:   10,
		PageSize:    50,
		LogFile:     logFile,
		LogLevel:    "warning",
		Width:       120,
		Height:      40,
		CacheSize:   512,
		Theme:       "monokai",
		Features: Features{
			Preview:    true,
			Reactions:  true,
			Hyperlinks: true,
		},
	}
}

// Load layers the config file at path (or the default location when path
// is empty) and the environment over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if v, ok := lookupEnv(ConfigFileEnv); ok && v != "" {
			path = v
		}
	}
	explicit := path != ""
	if !explicit {
		dir, err := osUserConfigDir()
		if err == nil {
			path = filepath.Join(dir, "issuedash", "config.yaml")
		}
	}

	if path != "" {
		fileCfg, err := loadFile(path)
		switch {
		case err == nil:
			cfg = merge(cfg, fileCfg)
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// merge overlays the non-zero fields of overlay onto base. Feature flags are
// taken from the overlay only when the file set any of them.
func merge(base, overlay Config) Config {
	if overlay.Owner != "" {
		base.Owner = overlay.Owner
	}
	if overlay.Repo != "" {
		base.Repo = overlay.Repo
	}
	if overlay.APIEndpoint != "" {
		base.APIEndpoint = overlay.APIEndpoint
	}
	if overlay.Timeout > 0 {
		base.Timeout = overlay.Timeout
	}
	if overlay.RateLimit > 0 {
		base.RateLimit = overlay.RateLimit
	}
	if overlay.PageSize > 0 {
		base.PageSize = overlay.PageSize
	}
	if overlay.LogFile != "" {
		base.LogFile = overlay.LogFile
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	if overlay.Width > 0 {
		base.Width = overlay.Width
	}
	if overlay.Height > 0 {
		base.Height = overlay.Height
	}
	if overlay.CacheSize > 0 {
		base.CacheSize = overlay.CacheSize
	}
	if overlay.Theme != "" {
		base.Theme = overlay.Theme
	}
	if overlay.Features != (Features{}) {
		base.Features = overlay.Features
	}
	return base
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnv(GitHubTokenEnv); ok {
		cfg.Token = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv(RepoEnv); ok && v != "" {
		if err := cfg.SetRepo(v); err != nil {
			return err
		}
	}
	if v, ok := lookupEnv(EndpointEnv); ok && v != "" {
		cfg.APIEndpoint = v
	}
	if v, ok := lookupEnv(TimeoutEnv); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", TimeoutEnv, err)
		}
		cfg.Timeout = d
	}
	if v, ok := lookupEnv(PageSizeEnv); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("config: %s must be a positive integer, got %q", PageSizeEnv, v)
		}
		cfg.PageSize = n
	}
	if v, ok := lookupEnv(LogFileEnv); ok && v != "" {
		cfg.LogFile = v
	}
	if v, ok := lookupEnv(LogLevelEnv); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return nil
}

// SetRepo parses an "owner/name" pair into Owner and Repo.
func (c *Config) SetRepo(slug string) error {
	owner, name, ok := strings.Cut(strings.TrimSpace(slug), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("config: repository must be owner/name, got %q", slug)
	}
	c.Owner = owner
	c.Repo = name
	return nil
}

// RepoSlug returns "owner/name".
func (c Config) RepoSlug() string {
	return c.Owner + "/" + c.Repo
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: set %s", ErrMissingToken, GitHubTokenEnv)
	}
	if c.Owner == "" || c.Repo == "" {
		return ErrMissingRepo
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("config: page size must be positive, got %d", c.PageSize)
	}
	return nil
}
