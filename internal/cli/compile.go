package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/adminpanel/internal/config"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult summarizes a resolved configuration.
type CompilationResult struct {
	Fingerprint string          `json:"fingerprint"`
	Format      string          `json:"format"`
	Passes      []string        `json:"passes"`
	Entities    []EntitySummary `json:"entities"`
	Homepage    config.Homepage `json:"homepage"`
	RTL         bool            `json:"rtl"`
}

// EntitySummary is one resolved entity.
type EntitySummary struct {
	Name       string   `json:"name"`
	Class      string   `json:"class"`
	PrimaryKey string   `json:"primary_key"`
	Properties int      `json:"properties"`
	Disabled   []string `json:"disabled_actions,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <config>",
		Short: "Resolve a configuration through every pass",
		Long: `Resolve an admin configuration: normalize it, introspect the schema
of every entity, complete view fields and derive design options.

The resolved tree can be written to a file with --output. With --cache-db
the tree is stored in a SQLite cache keyed by the configuration fingerprint.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the resolved tree to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	s, err := openSession(opts.RootOptions, path, logger)
	if err != nil {
		return reportSessionError(formatter, "Compilation failed", err)
	}
	defer s.close(logger)

	formatter.VerboseLog("Loaded %s configuration from %d file(s)", s.loaded.Format, len(s.loaded.Files))
	for _, name := range s.manager.Passes() {
		formatter.VerboseLog("Pass: %s", name)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	tree, err := s.manager.Resolve(ctx)
	if err != nil {
		return reportSessionError(formatter, "Compilation failed", err)
	}

	fingerprint, err := s.manager.Fingerprint()
	if err != nil {
		return WrapExitError(ExitCommandError, "fingerprint", err)
	}
	result := summarize(tree, fingerprint, string(s.loaded.Format), s.manager.Passes())

	if opts.Output != "" {
		if err := writeTree(tree, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}
	return outputCompileSuccess(formatter, result, opts.Output)
}

// ErrCodeWriteFailed reports an output file that could not be written.
const ErrCodeWriteFailed = "E008"

func summarize(tree *config.Tree, fingerprint, format string, passes []string) *CompilationResult {
	result := &CompilationResult{
		Fingerprint: fingerprint,
		Format:      format,
		Passes:      passes,
		Entities:    []EntitySummary{},
		Homepage:    tree.Homepage,
		RTL:         tree.Design.RTL != nil && *tree.Design.RTL,
	}
	for _, e := range tree.OrderedEntities() {
		class := e.SchemaClass
		if class == "" {
			class = e.DTOClass
		}
		result.Entities = append(result.Entities, EntitySummary{
			Name:       e.Name,
			Class:      class,
			PrimaryKey: e.PrimaryKeyFieldName,
			Properties: len(e.Properties),
			Disabled:   e.DisabledActions,
		})
	}
	return result
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Resolved %d entit%s\n\n", len(result.Entities), plural(len(result.Entities), "y", "ies"))
	fmt.Fprintln(w, "Entities:")
	for _, e := range result.Entities {
		pk := e.PrimaryKey
		if pk == "" {
			pk = "-"
		}
		fmt.Fprintf(w, "  %s: %s (pk %s, %d propert%s)\n",
			e.Name, e.Class, pk, e.Properties, plural(e.Properties, "y", "ies"))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote resolved configuration to %s\n", outputFile)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// writeTree writes the resolved tree as indented JSON.
func writeTree(tree *config.Tree, filename string) error {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling tree: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
