package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxDepth != 256 || cfg.Cache.Backend != CacheMemory || cfg.Server.Listen != ":8080" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.Path(), filepath.Join("factoryflow", "config.toml")) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !ferrors.Is(err, ferrors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
recipes = "factorio.txt"

[selection]
gear = 2

[engine]
max_depth = 64

[cache]
backend = "redis"
ttl = "90m"

[cache.redis]
addr = "cache:6379"
db = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Recipes != "factorio.txt" || cfg.Selection["gear"] != 2 || cfg.Engine.MaxDepth != 64 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute || cfg.Cache.Redis.Addr != "cache:6379" || cfg.Cache.Redis.DB != 3 {
		t.Errorf("cache section: %+v", cfg.Cache)
	}
	if cfg.Cache.Size != 1024 || cfg.Server.Listen != ":8080" {
		t.Error("unset keys must keep their defaults")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "recipes = ", "parse"},
		{"unknown key", "[engine]\ndepth = 3\n", "unknown keys: engine.depth"},
		{"backend", "[cache]\nbackend = \"disk\"\n", "cache.backend must be one of: none, memory, file, redis"},
		{"listen", "[server]\nlisten = \"nowhere\"\n", "server.listen must be host:port"},
		{"negative selection", "[selection]\ngear = -1\n", "selection[gear] must be at least 0"},
		{"bad duration", "[cache]\nttl = \"soon\"\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !ferrors.Is(err, ferrors.ErrCodeInvalidConfig) {
				t.Fatalf("error = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[server]\nlisten = \":9000\"\n")
	t.Setenv("FACTORYFLOW_LISTEN", "127.0.0.1:7000")
	t.Setenv("FACTORYFLOW_MAX_DEPTH", "12")
	t.Setenv("FACTORYFLOW_CACHE", "none")
	t.Setenv("FACTORYFLOW_CACHE_TTL", "5m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:7000" || cfg.Engine.MaxDepth != 12 ||
		cfg.Cache.Backend != CacheNone || cfg.Cache.TTL.Duration != 5*time.Minute {
		t.Errorf("env overrides not applied: %+v", cfg)
	}

	t.Setenv("FACTORYFLOW_MAX_DEPTH", "deep")
	if _, err := Load(path); !ferrors.Is(err, ferrors.ErrCodeInvalidConfig) {
		t.Errorf("bad env int error = %v", err)
	}
}

func TestRedisBackendNeedsAddr(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = CacheRedis
	cfg.Cache.Redis.Addr = ""
	if err := cfg.Validate(); !ferrors.Is(err, ferrors.ErrCodeInvalidConfig) {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.path = path
	cfg.Recipes = "recipes.toml"
	cfg.SetSelection("gear", 1)
	cfg.SetSelection("circuit", 0)

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if got.Recipes != "recipes.toml" || got.Selection["gear"] != 1 || got.Cache.TTL != cfg.Cache.TTL {
		t.Errorf("round trip lost data: %+v", got)
	}
	if items := got.SelectionItems(); strings.Join(items, ",") != "circuit,gear" {
		t.Errorf("SelectionItems() = %v", items)
	}
}
