// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads connectx client configuration.
//
// Configuration comes from one explicit file named by the --config flag
// or the CONNECTX_CONFIG environment variable. YAML is the native
// format; files ending in .json or .jsonc are accepted and comments are
// stripped before decoding. When no file is named, Default applies.
//
// The file may carry development, staging, and production sections that
// override base values when the environment matches. CONNECTX_API_URL
// replaces api.base_url after the file is applied, so a deployment can
// point an existing config at another backend.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment names the deployment the client talks to.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Duration is a time.Duration that decodes from strings like "30s".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the complete client configuration.
type Config struct {
	Environment  Environment        `yaml:"environment"`
	API          APIConfig          `yaml:"api"`
	Session      SessionConfig      `yaml:"session"`
	Verification VerificationConfig `yaml:"verification"`
	Guard        GuardConfig        `yaml:"guard"`
	Review       ReviewConfig       `yaml:"review"`
	Cache        CacheConfig        `yaml:"cache"`
	Log          LogConfig          `yaml:"log"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the fields an environment section may replace. Zero
// values leave the base value alone.
type Overrides struct {
	API     *APIConfig     `yaml:"api,omitempty"`
	Session *SessionConfig `yaml:"session,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// APIConfig locates the REST backend.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://api.connectx.example/api".
	// A trailing slash is removed.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every HTTP request. Default 30s.
	Timeout Duration `yaml:"timeout"`
}

// SessionConfig locates the persisted session.
type SessionConfig struct {
	// Path is the session file. Default
	// ${XDG_CONFIG_HOME:-$HOME/.config}/connectx/session.json.
	Path string `yaml:"path"`

	// IdentityFile, when set, switches the store to the age-sealed
	// backend keyed by this identity. Created on first use.
	IdentityFile string `yaml:"identity_file"`
}

// VerificationConfig tunes the status poller.
type VerificationConfig struct {
	// RefetchDelay is the wait between a face upload and the follow-up
	// status fetch. Default 1s.
	RefetchDelay Duration `yaml:"refetch_delay"`

	// PollInterval is the period of "verify watch". Default 5s.
	PollInterval Duration `yaml:"poll_interval"`
}

// GuardConfig tunes the route guard.
type GuardConfig struct {
	// StallTimeout is how long auth resolution may stay loading before
	// the guard offers a manual reload. Default 10s.
	StallTimeout Duration `yaml:"stall_timeout"`
}

// ReviewConfig tunes the admin review surfaces.
type ReviewConfig struct {
	// PollInterval is the refresh period of "review watch". Default 30s.
	PollInterval Duration `yaml:"poll_interval"`
}

// CacheConfig locates the query cache snapshot.
type CacheConfig struct {
	// SnapshotPath is where cached query results are persisted between
	// CLI invocations. Empty disables persistence.
	SnapshotPath string `yaml:"snapshot_path"`
}

// LogConfig controls the command logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default info.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is named.
func Default() *Config {
	return &Config{
		Environment: Development,
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: Duration(30 * time.Second),
		},
		Session: SessionConfig{
			Path: "${XDG_CONFIG_HOME:-${HOME}/.config}/connectx/session.json",
		},
		Verification: VerificationConfig{
			RefetchDelay: Duration(time.Second),
			PollInterval: Duration(5 * time.Second),
		},
		Guard:  GuardConfig{StallTimeout: Duration(10 * time.Second)},
		Review: ReviewConfig{PollInterval: Duration(30 * time.Second)},
		Cache: CacheConfig{
			SnapshotPath: "${XDG_CACHE_HOME:-${HOME}/.cache}/connectx/queries.cbor",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the file named by path, or by CONNECTX_CONFIG when path is
// empty, or returns Default when neither is set. The result has been
// validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONNECTX_CONFIG")
	}
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = Default()
		cfg.finish()
	} else if cfg, err = LoadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadFile decodes path over Default and applies environment sections,
// the CONNECTX_API_URL override, and variable expansion. It does not
// validate.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML once comments and trailing commas
		// are gone.
		data = jsonc.ToJSON(data)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.finish()
	return cfg, nil
}

func (c *Config) finish() {
	c.applyEnvironmentOverrides()
	if override := os.Getenv("CONNECTX_API_URL"); override != "" {
		c.API.BaseURL = override
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	c.Session.Path = expandVariables(c.Session.Path)
	c.Session.IdentityFile = expandVariables(c.Session.IdentityFile)
	c.Cache.SnapshotPath = expandVariables(c.Cache.SnapshotPath)
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if api := overrides.API; api != nil {
		if api.BaseURL != "" {
			c.API.BaseURL = api.BaseURL
		}
		if api.Timeout != 0 {
			c.API.Timeout = api.Timeout
		}
	}
	if session := overrides.Session; session != nil {
		if session.Path != "" {
			c.Session.Path = session.Path
		}
		if session.IdentityFile != "" {
			c.Session.IdentityFile = session.IdentityFile
		}
	}
	if log := overrides.Log; log != nil && log.Level != "" {
		c.Log.Level = log.Level
	}
}

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^{}]|\$\{[^}]*\})*))?\}`)

// expandVariables replaces ${VAR} and ${VAR:-default}. A default may
// itself contain one level of ${VAR}.
func expandVariables(value string) string {
	return variablePattern.ReplaceAllStringFunc(value, func(match string) string {
		parts := variablePattern.FindStringSubmatch(match)
		if resolved := os.Getenv(parts[1]); resolved != "" {
			return resolved
		}
		return expandVariables(parts[2])
	})
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("invalid environment %q", c.Environment))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	} else if parsed, err := url.Parse(c.API.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.Session.Path == "" {
		errs = append(errs, errors.New("session.path is required"))
	}
	if c.Verification.RefetchDelay < 0 {
		errs = append(errs, errors.New("verification.refetch_delay must not be negative"))
	}
	if c.Verification.PollInterval <= 0 {
		errs = append(errs, errors.New("verification.poll_interval must be positive"))
	}
	if c.Guard.StallTimeout <= 0 {
		errs = append(errs, errors.New("guard.stall_timeout must be positive"))
	}
	if c.Review.PollInterval <= 0 {
		errs = append(errs, errors.New("review.poll_interval must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be debug, info, warn, or error", c.Log.Level))
	}

	return errors.Join(errs...)
}
