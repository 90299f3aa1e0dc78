package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/adminpanel/internal/admin"
	"github.com/roach88/adminpanel/internal/event"
	"github.com/roach88/adminpanel/internal/repository"
	"github.com/roach88/adminpanel/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// Repository overrides the in-memory repository (for testing).
	Repository repository.Repository
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <config>",
		Short: "Serve the admin actions over HTTP",
		Long: `Serve the admin actions for a configuration.

Records are kept in memory for the lifetime of the process. Lifecycle
events are logged at debug level (use --verbose to see them).

Example:
  adminpanel serve ./admin --addr :8080
  adminpanel serve ./admin.yaml --cache-db ./admin-cache.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(opts *ServeOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	s, err := openSession(opts.RootOptions, path, logger)
	if err != nil {
		return reportSessionError(formatter, "Configuration failed", err)
	}
	defer s.close(logger)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Resolve up front so configuration errors fail the command instead of
	// the first request.
	if _, err := s.manager.Resolve(ctx); err != nil {
		return reportSessionError(formatter, "Configuration failed", err)
	}

	bus := event.NewBus(256, event.WithBusLogger(logger))
	bus.Subscribe("log", event.LogConsumer{Logger: logger})
	bus.Start(ctx)
	defer bus.Stop()

	repo := opts.Repository
	if repo == nil {
		repo = repository.NewMemory()
	}
	ctrl, err := admin.New(s.manager, repo,
		admin.WithEvents(bus),
		admin.WithLogger(logger),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create controller", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving admin on %s\n", opts.Addr)
	if err := server.Run(ctx, server.Config{
		Addr:       opts.Addr,
		Controller: ctrl,
		Config:     s.manager,
		Logger:     logger,
	}); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	logger.Info("server stopped")
	return nil
}
