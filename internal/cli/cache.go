package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/adminpanel/internal/cache"
)

// CacheStats describes a cache database.
type CacheStats struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the resolved configuration cache",
	}
	cmd.AddCommand(newCacheStatsCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	return cmd
}

func newCacheStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Count cached configurations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(ctx context.Context, f *OutputFormatter, db *cache.SQLite) error {
				n, err := db.Len(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read cache", err)
				}
				if f.Format == "json" {
					return f.Success(CacheStats{Path: rootOpts.CacheDB, Entries: n})
				}
				return f.Success(fmt.Sprintf("%s: %d cached configuration(s)", rootOpts.CacheDB, n))
			})
		},
	}
}

func newCacheClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Remove every cached configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(ctx context.Context, f *OutputFormatter, db *cache.SQLite) error {
				if err := db.Clear(ctx); err != nil {
					return WrapExitError(ExitCommandError, "failed to clear cache", err)
				}
				if f.Format == "json" {
					return f.Success(CacheStats{Path: rootOpts.CacheDB})
				}
				return f.Success("✓ Cache cleared")
			})
		},
	}
}

func withCache(opts *RootOptions, cmd *cobra.Command, fn func(context.Context, *OutputFormatter, *cache.SQLite) error) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.CacheDB == "" {
		_ = formatter.Error(ErrCodeNoCache, "--cache-db is required", nil)
		return NewExitError(ExitCommandError, "--cache-db is required")
	}

	db, err := cache.OpenSQLite(opts.CacheDB)
	if err != nil {
		_ = formatter.Error(ErrCodeNoCache, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open cache", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			newLogger(opts, cmd.ErrOrStderr()).Error("error closing cache", "error", err)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, formatter, db)
}

// ErrCodeNoCache reports a missing or unreadable cache database.
const ErrCodeNoCache = "E009"
