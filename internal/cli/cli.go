// Package cli implements the factoryflow command-line interface.
package cli

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/factoryflow/internal/config"
	"github.com/matzehuels/factoryflow/pkg/buildinfo"
	"github.com/matzehuels/factoryflow/pkg/cache"
	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/planner"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "factoryflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	recipesPath string
	cfg         *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "factoryflow computes production chains for target output rates",
		Long: `factoryflow expands a target throughput through a recipe graph and reports
the rate of every item involved, the factories needed, leftover co-products
and the expansion tree.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/factoryflow/config.toml)")
	root.PersistentFlags().StringVarP(&c.recipesPath, "recipes", "r", "", "recipe file (.txt, .toml, .yaml)")

	// Register all subcommands
	root.AddCommand(c.calcCommand())
	root.AddCommand(c.itemsCommand())
	root.AddCommand(c.recipesCommand())
	root.AddCommand(c.optionalCommand())
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.shellCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.versionCommand())

	return root
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			info := buildinfo.Get()
			printKeyValue(w, "version", info.Version)
			printKeyValue(w, "commit", info.Commit)
			printKeyValue(w, "built", info.Date)
		},
	}
}

// =============================================================================
// Config and Database
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// loadDatabase loads the recipe file named by --recipes or the config and
// applies the saved selection.
func (c *CLI) loadDatabase(ctx context.Context) (*recipe.Database, error) {
	return c.openDatabase(loggerFromContext(ctx))
}

func (c *CLI) openDatabase(logger *log.Logger) (*recipe.Database, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	path := c.recipesPath
	if path == "" {
		path = cfg.Recipes
	}
	if path == "" {
		return nil, ferrors.New(ferrors.ErrCodeInvalidInput,
			"no recipe file: pass --recipes or set recipes in %s", cfg.Path())
	}
	return planner.LoadDatabase(path, cfg.Selection, logger)
}

// applySelects applies item=index overrides to db for this invocation only.
func applySelects(db *recipe.Database, selects []string) error {
	for _, s := range selects {
		name, idx, err := parseSelect(s)
		if err != nil {
			return err
		}
		if err := db.SelectByName(name, idx); err != nil {
			return err
		}
	}
	return nil
}

// parseSelect splits "item=index".
func parseSelect(s string) (string, int, error) {
	name, num, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", 0, ferrors.New(ferrors.ErrCodeInvalidInput, "invalid selection %q (want item=index)", s)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return "", 0, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid selection %q", s)
	}
	return strings.TrimSpace(name), idx, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a planner runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*planner.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)

	var keyer cache.Keyer
	if cfg.Cache.Backend == config.CacheRedis {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Redis.Prefix)
	}
	runner := planner.NewRunner(newCache(ctx, cfg, noCache, logger), keyer, logger)
	runner.MaxDepth = cfg.Engine.MaxDepth
	return runner, nil
}

// newCache builds the configured backend. Backends that cannot be reached
// fall back to no caching with a warning.
func newCache(ctx context.Context, cfg *config.Config, noCache bool, logger *log.Logger) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL.Duration)
	case config.CacheFile:
		dir, err := cacheDir(cfg)
		if err != nil {
			logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache()
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			logger.Warn("cache disabled", "dir", dir, "error", err)
			return cache.NewNullCache()
		}
		return fc
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			logger.Warn("cache disabled", "addr", cfg.Cache.Redis.Addr, "error", err)
			return cache.NewNullCache()
		}
		return rc
	}
	return cache.NewNullCache()
}

// cacheDir returns the file cache directory: the configured one or
// $XDG_CACHE_HOME/factoryflow.
func cacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return config.DefaultCacheDir()
}
