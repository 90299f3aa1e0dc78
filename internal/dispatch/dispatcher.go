package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/adminpanel/internal/apperr"
	"github.com/roach88/adminpanel/internal/config"
)

// EntityPlaceholder is replaced by the entity name in handler patterns.
const EntityPlaceholder = "<EntityName>"

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for deprecation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithObserver sets a callback invoked for every deprecation warning.
func WithObserver(fn func(Deprecation)) Option {
	return func(d *Dispatcher) {
		d.observer = fn
	}
}

// Dispatcher resolves handler name patterns against a Registry.
type Dispatcher struct {
	registry *Registry
	owner    string
	logger   *slog.Logger
	observer func(Deprecation)
}

// New creates a Dispatcher. owner names the hosting type in
// HandlerNotFound errors.
func New(registry *Registry, owner string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		owner:    owner,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call describes one dispatch.
type Call struct {
	// Pattern is a handler name that may contain EntityPlaceholder.
	Pattern string

	// Entity is substituted for EntityPlaceholder.
	Entity string

	// Args are passed to the handler.
	Args []any

	// NoDeprecationWarning suppresses the warning for deprecated hooks.
	NoDeprecationWarning bool
}

// Resolve picks the concrete handler for pattern: the entity-specific name
// when registered, else the generic name with the placeholder removed.
// Neither registered yields HandlerNotFound naming the generic handler.
func (d *Dispatcher) Resolve(pattern, entity string) (string, Handler, error) {
	specific := strings.ReplaceAll(pattern, EntityPlaceholder, entity)
	if h, _, ok := d.registry.Lookup(specific); ok {
		return specific, h, nil
	}

	generic := strings.ReplaceAll(pattern, EntityPlaceholder, "")
	if h, _, ok := d.registry.Lookup(generic); ok {
		return generic, h, nil
	}
	return "", nil, apperr.HandlerNotFound(generic, d.owner)
}

// Invoke resolves c and runs the handler.
func (d *Dispatcher) Invoke(ctx context.Context, c Call) (any, error) {
	name, h, err := d.Resolve(c.Pattern, c.Entity)
	if err != nil {
		return nil, err
	}

	if !c.NoDeprecationWarning {
		if dep, ok := deprecated(name); ok {
			d.warn(dep)
		}
	}
	return h(ctx, c.Args...)
}

// Call resolves pattern for entity and runs the handler with args.
func (d *Dispatcher) Call(ctx context.Context, pattern, entity string, args ...any) (any, error) {
	return d.Invoke(ctx, Call{Pattern: pattern, Entity: entity, Args: args})
}

// Guard rejects actions listed in the entity's disabled_actions.
func Guard(e *config.EntityConfig, action string) error {
	if e.IsDisabled(action) {
		return apperr.ForbiddenAction(action, e.Name)
	}
	return nil
}

// DispatchAction guards action and then runs "<action><EntityName>Action".
// No handler is resolved for a disabled action.
func (d *Dispatcher) DispatchAction(ctx context.Context, e *config.EntityConfig, action string, args ...any) (any, error) {
	if err := Guard(e, action); err != nil {
		return nil, err
	}
	return d.Call(ctx, action+EntityPlaceholder+"Action", e.Name, args...)
}

func (d *Dispatcher) warn(dep Deprecation) {
	d.logger.Warn(dep.Message(),
		"handler", dep.Handler,
		"replacement", dep.Replacement,
	)
	if d.observer != nil {
		d.observer(dep)
	}
}
