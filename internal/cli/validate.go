package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Entities []string `json:"entities"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a configuration without writing anything",
		Long: `Validate an admin configuration.

Checks the raw tree (colors, color scheme, sort directions, menu and entity
references) and then runs the passes, so missing or unmapped classes and
composite primary keys are reported too. No cache is read or written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts, cmd.ErrOrStderr())

	noCache := *opts
	noCache.NoCache = true
	s, err := openSession(&noCache, path, logger)
	if err != nil {
		return reportSessionError(formatter, "Validation failed", err)
	}
	defer s.close(logger)

	formatter.VerboseLog("Loaded %s configuration from %v", s.loaded.Format, s.loaded.Files)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	tree, err := s.manager.Resolve(ctx)
	if err != nil {
		return reportSessionError(formatter, "Validation failed", err)
	}

	result := ValidationResult{Valid: true, Entities: []string{}}
	for _, e := range tree.OrderedEntities() {
		formatter.VerboseLog("Entity %s: ok", e.Name)
		result.Entities = append(result.Entities, e.Name)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success("✓ Configuration valid")
}
