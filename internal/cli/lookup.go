package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// LookupResult is the value found at a dotted path.
type LookupResult struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <config> [path]",
		Short: "Print a value of the resolved configuration",
		Long: `Print the value at a dotted path of the resolved configuration.

List elements are addressed by index, for example "design.menu.0.label" or
"entities.Product.list.fields". Without a path the whole tree is printed.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return runLookup(rootOpts, args[0], path, cmd)
		},
	}

	return cmd
}

func runLookup(opts *RootOptions, configPath, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts, cmd.ErrOrStderr())

	s, err := openSession(opts, configPath, logger)
	if err != nil {
		return reportSessionError(formatter, "Lookup failed", err)
	}
	defer s.close(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	value, err := s.manager.Lookup(ctx, path)
	if err != nil {
		return reportSessionError(formatter, "Lookup failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(LookupResult{Path: path, Value: value})
	}
	if str, ok := value.(string); ok {
		fmt.Fprintln(formatter.Writer, str)
		return nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding value", err)
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}
