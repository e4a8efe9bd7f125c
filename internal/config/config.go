package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. SOCIALSYNC_LISTEN.
const EnvPrefix = "SOCIALSYNC"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the whole server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// StoreConfig selects the row store backend.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres. An empty driver means no
	// backend is configured and the dashboard serves demo data.
	Driver string `yaml:"driver" json:"driver"`

	SQLitePath  string `yaml:"sqlite_path" json:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn" json:"-"`
}

// MediaConfig configures the object storage used for uploads.
type MediaConfig struct {
	Dir string `yaml:"dir" json:"dir"`
	// PublicBaseURL prefixes public media URLs, e.g. "http://localhost:8080/media".
	PublicBaseURL string `yaml:"public_base_url" json:"public_base_url"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and calendar page.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used for calendar dates (e.g. "America/New_York").
	Timezone string `yaml:"timezone" json:"timezone"`

	// DataDir holds the SQLite database, media and ICS caches unless
	// overridden individually.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	Store StoreConfig `yaml:"store" json:"store"`
	Media MediaConfig `yaml:"media" json:"media"`

	// Demo forces demo data even when a store is configured.
	Demo bool `yaml:"demo" json:"demo"`

	// PublishCron is the schedule of the simulated publisher job.
	PublishCron string `yaml:"publish_cron" json:"publish_cron"`

	// SessionTTL bounds how long a sign-in token stays valid.
	SessionTTL time.Duration `yaml:"session_ttl" json:"session_ttl"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// envOverrides mirrors the subset of Config that may be set from the
// environment. Empty values leave the file config untouched.
type envOverrides struct {
	Listen        string        `envconfig:"LISTEN"`
	Timezone      string        `envconfig:"TIMEZONE"`
	DataDir       string        `envconfig:"DATA_DIR"`
	StoreDriver   string        `envconfig:"STORE_DRIVER"`
	SQLitePath    string        `envconfig:"SQLITE_PATH"`
	PostgresDSN   string        `envconfig:"POSTGRES_DSN"`
	MediaDir      string        `envconfig:"MEDIA_DIR"`
	PublicBaseURL string        `envconfig:"PUBLIC_BASE_URL"`
	Demo          *bool         `envconfig:"DEMO"`
	PublishCron   string        `envconfig:"PUBLISH_CRON"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL"`
	LogLevel      string        `envconfig:"LOG_LEVEL"`
	BasicUser     string        `envconfig:"BASIC_AUTH_USERNAME"`
	BasicPassword string        `envconfig:"BASIC_AUTH_PASSWORD"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultDataDir     = "~/.socialsync"
	defaultPublishCron = "* * * * *"
	defaultSessionTTL  = 24 * time.Hour
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		Timezone:    defaultTimezone,
		DataDir:     defaultDataDir,
		Store:       StoreConfig{Driver: DriverMemory},
		PublishCron: defaultPublishCron,
		SessionTTL:  defaultSessionTTL,
		LogLevel:    "info",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == DriverSQLite && c.Store.SQLitePath == "" {
		c.Store.SQLitePath = filepath.Join(c.DataDir, "socialsync.db")
	}
	if c.Media.Dir == "" {
		c.Media.Dir = filepath.Join(c.DataDir, "media")
	}
	if c.Media.PublicBaseURL == "" {
		c.Media.PublicBaseURL = "/media"
	}
	if c.PublishCron == "" {
		c.PublishCron = defaultPublishCron
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks values Normalize cannot repair.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "", DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("config: store.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.PublishCron); err != nil {
		return fmt.Errorf("config: invalid publish_cron %q: %w", c.PublishCron, err)
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HasBackend reports whether a row store is configured and demo mode is off.
func (c *Config) HasBackend() bool {
	return c.Store.Driver != "" && !c.Demo
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - If the file exists, YAML is read and defaults are filled in.
//   - SOCIALSYNC_* environment variables override file values.
//   - Paths beginning with ~ are expanded.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays SOCIALSYNC_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to process environment variables: %w", err)
	}
	setString(&c.Listen, env.Listen)
	setString(&c.Timezone, env.Timezone)
	setString(&c.DataDir, env.DataDir)
	setString(&c.Store.Driver, env.StoreDriver)
	setString(&c.Store.SQLitePath, env.SQLitePath)
	setString(&c.Store.PostgresDSN, env.PostgresDSN)
	setString(&c.Media.Dir, env.MediaDir)
	setString(&c.Media.PublicBaseURL, env.PublicBaseURL)
	setString(&c.PublishCron, env.PublishCron)
	setString(&c.LogLevel, env.LogLevel)
	if env.Demo != nil {
		c.Demo = *env.Demo
	}
	if env.SessionTTL > 0 {
		c.SessionTTL = env.SessionTTL
	}
	if env.BasicUser != "" || env.BasicPassword != "" {
		c.BasicAuth = &BasicAuthConfig{Username: env.BasicUser, Password: env.BasicPassword}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.DataDir, &c.Store.SQLitePath, &c.Media.Dir} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".socialsync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
