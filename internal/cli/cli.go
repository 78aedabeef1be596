// Package cli implements the pyventory command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pyventory/pyventory/pkg/buildinfo"
	"github.com/pyventory/pyventory/pkg/cache"
	"github.com/pyventory/pyventory/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "pyventory"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pyventory",
		Short:        "Pyventory inventories Python usage across a GitHub organization",
		Long:         `Pyventory scans every repository and branch of a GitHub organization, collects Python dependency manifests and import usage, and aggregates the findings into a snapshot you can store, export, and serve.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.scanCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache selects the response cache backend: disabled, Redis when a URL is
// given, otherwise the on-disk cache.
func (c *CLI) newCache(cmd *cobra.Command, noCache bool, redisURL string, ttl time.Duration) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisURL != "" {
		rc, err := cache.NewRedisCache(cmd.Context(), redisURL)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using redis cache", "ttl", ttl)
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore selects the snapshot store backend: MongoDB when a URI is given,
// otherwise JSON files under the data directory.
func (c *CLI) newStore(ctx context.Context, dataDir, mongoURI string) (store.Store, error) {
	if mongoURI != "" {
		c.Logger.Debug("using mongodb store")
		return store.NewMongoStore(ctx, mongoURI)
	}
	return store.NewFileStore(dataDir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pyventory/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultDataDir returns the data directory for snapshots (~/.local/share/pyventory/).
func defaultDataDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appName + "-data"
	}
	return filepath.Join(home, ".local", "share", appName)
}
