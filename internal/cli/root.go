package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Locale drives the rtl default of the design pass.
	Locale string

	// Debug is exposed to the theme stylesheet template.
	Debug bool

	// CacheDB is the SQLite file caching resolved configurations. Empty
	// means an in-process cache.
	CacheDB string
	NoCache bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the adminpanel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "adminpanel",
		Short: "Admin panel configuration and host",
		Long: `Resolve admin panel configurations and serve the admin actions.

A configuration is a directory of CUE files or an admin.yaml document
declaring entities, their views and the data classes behind them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Locale, "locale", "en", "process locale")
	flags.BoolVar(&opts.Debug, "debug", false, "debug mode for derived styles")
	flags.StringVar(&opts.CacheDB, "cache-db", "", "path to SQLite cache of resolved configurations")
	flags.BoolVar(&opts.NoCache, "no-cache", false, "always run the configuration passes")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
