package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/adminpanel/internal/cache"
	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/loader"
	"github.com/roach88/adminpanel/internal/pass"
	"github.com/roach88/adminpanel/internal/pipeline"
	"github.com/roach88/adminpanel/internal/schema"
)

// session is a loaded configuration wired into a pipeline manager.
type session struct {
	loaded  *loader.Result
	manager *pipeline.Manager
	closer  io.Closer
}

// invalidConfigError reports a raw configuration that failed validation.
type invalidConfigError struct {
	errs []error
}

func (e *invalidConfigError) Error() string {
	return fmt.Sprintf("configuration has %d problem(s)", len(e.errs))
}

// openSession loads the configuration at path, validates it and registers
// the default passes. The caller must call close.
func openSession(opts *RootOptions, path string, logger *slog.Logger) (*session, error) {
	loaded, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(loaded.Tree); len(errs) > 0 {
		return nil, &invalidConfigError{errs: errs}
	}

	reg, err := schema.FromConfig(loaded.Tree.Schema)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	s := &session{loaded: loaded}
	var c pipeline.Cache
	switch {
	case opts.NoCache:
		c = cache.Nop{}
	case opts.CacheDB != "":
		db, err := cache.OpenSQLite(opts.CacheDB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open cache", err)
		}
		c, s.closer = db, db
	default:
		c = cache.NewMemory()
	}

	s.manager = pipeline.New(loaded.Tree, pipeline.WithCache(c), pipeline.WithLogger(logger))
	if err := pass.RegisterDefaults(s.manager, pass.Deps{
		Schema: reg,
		Locale: opts.Locale,
		Debug:  opts.Debug,
	}); err != nil {
		s.close(logger)
		return nil, err
	}
	return s, nil
}

func (s *session) close(logger *slog.Logger) {
	if s.closer == nil {
		return
	}
	if err := s.closer.Close(); err != nil {
		logger.Error("error closing cache", "error", err)
	}
}

// newLogger writes text logs to w; verbose lowers the level to debug.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// reportSessionError prints why a session could not be opened or resolved
// and returns the matching ExitError.
func reportSessionError(f *OutputFormatter, title string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_ = f.Error(loader.ErrCodeGeneric, exitErr.Error(), nil)
		return exitErr
	}

	var invalid *invalidConfigError
	if errors.As(err, &invalid) {
		cliErrs := make([]CLIError, len(invalid.errs))
		for i, e := range invalid.errs {
			cliErrs[i] = toCLIError(e)
		}
		if err := f.Errors(title, cliErrs); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d error(s)", title, len(cliErrs)))
	}

	ce := toCLIError(err)
	if err := f.Errors(title, []CLIError{ce}); err != nil {
		return err
	}
	var le *loader.LoadError
	if errors.As(err, &le) {
		return WrapExitError(ExitCommandError, title, err)
	}
	return WrapExitError(ExitFailure, title, err)
}
