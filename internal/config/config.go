// Package config loads retailctl settings.
//
// Sources, later ones winning: built-in defaults, the YAML config file
// (~/.retailctl/config.yaml unless --config names another), an optional .env
// file, RETAILCTL_* environment variables (double underscore for nesting,
// e.g. RETAILCTL_CONSOLE__ADDR), then command-line flags applied by the
// caller through Override.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/retailctl/internal/errors"
)

// EnvPrefix prefixes every environment variable read.
const EnvPrefix = "RETAILCTL_"

// DirName is the per-user state directory under $HOME.
const DirName = ".retailctl"

// Config is the effective configuration.
type Config struct {
	APIURL  string        `koanf:"api_url" yaml:"api_url"`
	Storage string        `koanf:"storage" yaml:"storage"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	Format  string        `koanf:"format" yaml:"format"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
	Console ConsoleConfig `koanf:"console" yaml:"console"`

	path string
	k    *koanf.Koanf
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// ConsoleConfig controls `retailctl serve`.
type ConsoleConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	CookieName      string        `koanf:"cookie_name" yaml:"cookie_name"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:  "http://localhost:8080/api",
		Storage: filepath.Join(homeDir(), DirName, "session.db"),
		Timeout: 30 * time.Second,
		Format:  "text",
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Console: ConsoleConfig{
			Addr:            "127.0.0.1:8088",
			CookieName:      "retailctl_flash",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// DefaultPath returns ~/.retailctl/config.yaml.
func DefaultPath() string {
	return filepath.Join(homeDir(), DirName, "config.yaml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	// Path is an explicit config file. It must exist when set.
	Path string
	// DotEnv is an optional .env file. Missing files are ignored.
	DotEnv string
}

// Load builds the configuration from defaults, file and environment.
func Load(opts LoadOptions) (*Config, error) {
	if opts.DotEnv != "" {
		if err := godotenv.Load(opts.DotEnv); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to load "+opts.DotEnv, err)
		}
	}

	k := koanf.New(".")

	path := opts.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to parse "+path, err).
				WithSuggestion("Fix the YAML syntax or run 'retailctl config path' to locate the file")
		}
	} else if explicit {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "config file not found: "+path, err)
	}

	// RETAILCTL_CONSOLE__ADDR -> console.addr
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to read environment", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to decode configuration", err)
	}
	cfg.path = path
	cfg.k = k
	cfg.Storage = expandHome(cfg.Storage)

	return cfg, nil
}

// Path returns the config file location Load considered.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Overrides are command-line values. Empty fields leave the config alone.
type Overrides struct {
	APIURL    string
	Storage   string
	LogLevel  string
	LogFormat string
	Format    string
}

// Override applies command-line flags.
func (c *Config) Override(o Overrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.APIURL, o.APIURL)
	set(&c.Storage, expandHome(o.Storage))
	set(&c.Log.Level, o.LogLevel)
	set(&c.Log.Format, o.LogFormat)
	set(&c.Format, o.Format)
}

// Validate checks the values the rest of the program relies on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewConfigInvalidError("api_url", fmt.Sprintf("%q is not an http(s) URL", c.APIURL))
	}
	if c.Storage == "" {
		return errors.NewConfigInvalidError("storage", "path is empty")
	}
	if c.Timeout <= 0 {
		return errors.NewConfigInvalidError("timeout", "must be positive")
	}
	if !oneOf(c.Format, "text", "json", "yaml") {
		return errors.NewConfigInvalidError("format", fmt.Sprintf("%q is not one of text, json, yaml", c.Format))
	}
	if !oneOf(strings.ToLower(c.Log.Level), "debug", "info", "warn", "warning", "error") {
		return errors.NewConfigInvalidError("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}
	if !oneOf(strings.ToLower(c.Log.Format), "text", "json") {
		return errors.NewConfigInvalidError("log.format", fmt.Sprintf("unknown format %q", c.Log.Format))
	}
	if c.Console.Addr == "" {
		return errors.NewConfigInvalidError("console.addr", "address is empty")
	}
	return nil
}

// Get returns a value by dotted key, as loaded from file and environment.
func (c *Config) Get(key string) (any, bool) {
	if c.k == nil || !c.k.Exists(key) {
		return nil, false
	}
	return c.k.Get(key), true
}

// Keys lists the keys set by file or environment.
func (c *Config) Keys() []string {
	if c.k == nil {
		return nil
	}
	keys := c.k.Keys()
	sort.Strings(keys)
	return keys
}

// Save writes c as YAML to path with owner-only permissions.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarshal, "failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to write config", err)
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
