// Package config loads factoryflow settings.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML
// file, a .env file in the working directory, and FACTORYFLOW_* environment
// variables. The merged result is validated before use.
//
//	recipes = "recipes.txt"
//
//	[selection]
//	gear = 1
//
//	[engine]
//	max_depth = 256
//
//	[server]
//	listen = ":8080"
//
//	[cache]
//	backend = "memory"
//	size = 1024
//	ttl = "24h"
//
//	[cache.redis]
//	addr = "localhost:6379"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
)

const appName = "factoryflow"

// envPrefix prefixes every environment override.
const envPrefix = "FACTORYFLOW_"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the merged configuration.
type Config struct {
	// Recipes is the default recipe file.
	Recipes string `toml:"recipes,omitempty"`

	// Selection is the saved recipe choice per optional item.
	Selection map[string]int `toml:"selection,omitempty" validate:"dive,gte=0"`

	Engine EngineConfig `toml:"engine"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`

	path string
}

// EngineConfig tunes the expansion engine.
type EngineConfig struct {
	MaxDepth int `toml:"max_depth" validate:"gte=0,lte=100000"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Listen         string   `toml:"listen" validate:"required,hostname_port"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// CacheConfig selects and tunes the plan cache.
type CacheConfig struct {
	Backend string      `toml:"backend" validate:"oneof=none memory file redis"`
	Size    int         `toml:"size" validate:"gte=0"`
	TTL     Duration    `toml:"ttl"`
	Dir     string      `toml:"dir,omitempty"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig locates the Redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr" validate:"omitempty,hostname_port"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db" validate:"gte=0,lte=15"`
	Prefix   string `toml:"prefix"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Selection: map[string]int{},
		Engine:    EngineConfig{MaxDepth: 256},
		Server: ServerConfig{
			Listen:         ":8080",
			RequestTimeout: Duration{30 * time.Second},
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Size:    1024,
			TTL:     Duration{24 * time.Hour},
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: appName + ":"},
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/factoryflow/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/factoryflow, falling back to
// ~/.cache.
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the configuration. An empty path means [DefaultPath], which may
// be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables work without it.
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "locate config")
		}
		path = p
	}

	cfg := Default()
	cfg.path = path

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case errors.Is(err, fs.ErrNotExist):
		return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "config file %s", path)
	case err != nil:
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "parse %s", path)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, ferrors.New(ferrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}
	if cfg.Selection == nil {
		cfg.Selection = map[string]int{}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from (it may not exist).
func (c *Config) Path() string { return c.path }

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "%s%s", envPrefix, key)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *Duration) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return nil
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "%s%s", envPrefix, key)
		}
		return nil
	}

	str("RECIPES", &c.Recipes)
	str("LISTEN", &c.Server.Listen)
	str("CACHE", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	str("REDIS_ADDR", &c.Cache.Redis.Addr)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	return errors.Join(
		num("MAX_DEPTH", &c.Engine.MaxDepth),
		num("CACHE_SIZE", &c.Cache.Size),
		num("REDIS_DB", &c.Cache.Redis.DB),
		dur("CACHE_TTL", &c.Cache.TTL),
		dur("REQUEST_TIMEOUT", &c.Server.RequestTimeout),
	)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "invalid config: %s", strings.Join(msgs, "; "))
	}
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "invalid config")
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "invalid config: cache.redis.addr is required for the redis backend")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", field, fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return field + " is invalid"
}

// SetSelection records the recipe choice for item.
func (c *Config) SetSelection(item string, index int) {
	if c.Selection == nil {
		c.Selection = map[string]int{}
	}
	c.Selection[item] = index
}

// Save writes the configuration to its path, creating parent directories.
// The file is replaced atomically.
func (c *Config) Save() error {
	if c.path == "" {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "config has no path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(c); err != nil {
		tmp.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

// SelectionItems returns the items with a saved selection, sorted.
func (c *Config) SelectionItems() []string {
	names := make([]string, 0, len(c.Selection))
	for name := range c.Selection {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
