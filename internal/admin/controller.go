// Package admin hosts the admin actions on top of the resolved
// configuration.
//
// The Controller turns a Request into a Response: it resolves the
// configuration, selects the entity, loads the item named by "id", guards
// the action against disabled_actions and dispatches
// "<action><EntityName>Action" through the handler registry. Every behavior
// the default actions delegate to (entity creation, persistence hooks,
// query construction, rendering) is itself a registered handler, so an
// application overrides one entity's behavior by registering, for
// example, "persistProductEntity".
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/adminpanel/internal/apperr"
	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/dispatch"
	"github.com/roach88/adminpanel/internal/event"
	"github.com/roach88/adminpanel/internal/redirect"
	"github.com/roach88/adminpanel/internal/repository"
)

// Resolver yields the resolved configuration. *pipeline.Manager
// implements it.
type Resolver interface {
	Resolve(ctx context.Context) (*config.Tree, error)
}

// Controller serves admin requests.
type Controller struct {
	config Resolver
	repo   repository.Repository

	events     event.Publisher
	registry   *dispatch.Registry
	dispatcher *dispatch.Dispatcher
	ids        RequestIDGenerator
	logger     *slog.Logger
	routes     map[string]string

	providers     []dispatch.HandlerProvider
	observer      func(dispatch.Deprecation)
	defaultsOwner string
}

// Option configures a Controller.
type Option func(*Controller)

// WithEvents sets the publisher for lifecycle events.
func WithEvents(p event.Publisher) Option {
	return func(c *Controller) {
		c.events = p
	}
}

// WithHandlers registers application handlers. They take precedence over
// the defaults with the same name.
func WithHandlers(p dispatch.HandlerProvider) Option {
	return func(c *Controller) {
		c.providers = append(c.providers, p)
	}
}

// WithRequestIDs sets the request id generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(c *Controller) {
		c.ids = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithRoutes maps route names to paths for redirects.
func WithRoutes(routes map[string]string) Option {
	return func(c *Controller) {
		for k, v := range routes {
			c.routes[k] = v
		}
	}
}

// WithDeprecationObserver receives deprecation warnings from dispatch.
func WithDeprecationObserver(fn func(dispatch.Deprecation)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// New creates a Controller over the configuration and repository.
func New(cfg Resolver, repo repository.Repository, opts ...Option) (*Controller, error) {
	c := &Controller{
		config:   cfg,
		repo:     repo,
		events:   event.Discard{},
		registry: dispatch.NewRegistry(),
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
		routes:   map[string]string{redirect.RouteAdmin: "/admin"},
	}
	for _, opt := range opts {
		opt(c)
	}

	defaults := &defaultHandlers{c: c}
	c.defaultsOwner = dispatch.OwnerOf(defaults)
	if err := c.registry.RegisterProvider(defaults); err != nil {
		return nil, fmt.Errorf("register default handlers: %w", err)
	}
	for _, p := range c.providers {
		if err := c.registry.OverrideProvider(p); err != nil {
			return nil, fmt.Errorf("register %s handlers: %w", dispatch.OwnerOf(p), err)
		}
	}

	dopts := []dispatch.Option{dispatch.WithLogger(c.logger)}
	if c.observer != nil {
		dopts = append(dopts, dispatch.WithObserver(c.observer))
	}
	c.dispatcher = dispatch.New(c.registry, dispatch.OwnerOf(c), dopts...)
	return c, nil
}

// Handlers returns the registered handler names.
func (c *Controller) Handlers() []string {
	return c.registry.Names()
}

// Handle serves one request.
func (c *Controller) Handle(ctx context.Context, req *Request) (*Response, error) {
	ex, res, err := c.initialize(ctx, req)
	if err != nil || res != nil {
		return res, err
	}

	out, err := c.dispatcher.DispatchAction(ctx, ex.Entity, ex.Action, ex)
	if err != nil {
		return nil, err
	}
	return asResponse(ex.Action+"Action", out)
}

// initialize prepares the exchange. A non-nil Response short-circuits the
// request (homepage redirect).
func (c *Controller) initialize(ctx context.Context, req *Request) (*Exchange, *Response, error) {
	ex := &Exchange{
		RequestID: c.ids.Generate(),
		Request:   req.clone(),
		c:         c,
	}
	ex.publish(ctx, event.PreInitialize, nil)

	tree, err := c.config.Resolve(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve configuration: %w", err)
	}
	ex.Config = tree

	if len(tree.Entities) == 0 {
		return nil, nil, apperr.NoEntitiesConfigured()
	}

	q := ex.Request.Query
	name := q.Get("entity")
	if name == "" {
		return nil, redirectTo(redirect.Homepage(tree.Homepage).Href(c.routes)), nil
	}

	entity := tree.Entity(name)
	if entity == nil {
		return nil, nil, apperr.UndefinedEntity(name)
	}
	ex.Entity = entity
	ex.Action = ex.Request.Param("action", "list")

	var sort *config.SortConfig
	if view := entity.View(ex.Action); view != nil {
		sort = view.Sort
	}
	if !q.Has("sortField") {
		field := entity.PrimaryKeyFieldName
		if sort != nil && sort.Field != "" {
			field = sort.Field
		}
		q.Set("sortField", field)
	}
	if !q.Has("sortDirection") {
		dir := "DESC"
		if sort != nil && sort.Direction != "" {
			dir = sort.Direction
		}
		q.Set("sortDirection", dir)
	}

	if id := q.Get("id"); id != "" {
		item, err := c.resolveItem(ctx, ex, id)
		if err != nil {
			return nil, nil, err
		}
		ex.Item = item
	}

	ex.publish(ctx, event.PostInitialize, nil)
	return ex, nil, nil
}

// resolveItem loads the record named by id. DTO-backed entities go through
// the resolveSubject handler, which may return no record.
func (c *Controller) resolveItem(ctx context.Context, ex *Exchange, id string) (repository.Record, error) {
	e := ex.Entity
	if e.DTOClass != "" {
		out, err := ex.Call(ctx, "resolve<EntityName>Subject", e.DTOClass, id)
		if err != nil {
			return nil, err
		}
		rec, _ := out.(repository.Record)
		return rec, nil
	}

	rec, err := c.repo.Find(ctx, ex.DataClass(), e.PrimaryKeyFieldName, id)
	if repository.IsNotFound(err) {
		return nil, apperr.EntityNotFound(e.Name, e.PrimaryKeyFieldName, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", e.Name, id, err)
	}
	return rec, nil
}

func asResponse(handler string, out any) (*Response, error) {
	res, ok := out.(*Response)
	if !ok || res == nil {
		return nil, fmt.Errorf("%s returned %T, want *admin.Response", handler, out)
	}
	return res, nil
}

// Exchange is the per-request state handed to every handler as its first
// argument.
type Exchange struct {
	RequestID string
	Request   *Request
	Config    *config.Tree
	Entity    *config.EntityConfig
	Action    string

	// Item is the record named by the "id" parameter, or the record being
	// created.
	Item repository.Record

	c *Controller
}

var errNoExchange = errors.New("admin: handler called without an exchange")

// ExchangeFrom returns the exchange passed as the first handler argument.
func ExchangeFrom(args []any) (*Exchange, error) {
	if len(args) == 0 {
		return nil, errNoExchange
	}
	ex, ok := args[0].(*Exchange)
	if !ok || ex == nil {
		return nil, errNoExchange
	}
	return ex, nil
}

// Arg returns handler argument i converted to T.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, fmt.Errorf("admin: missing handler argument %d", i)
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("admin: handler argument %d is %T, want %T", i, args[i], zero)
	}
	return v, nil
}

// DataClass is the class the repository stores records of this entity
// under.
func (ex *Exchange) DataClass() string {
	e := ex.Entity
	switch {
	case e.Class != "":
		return e.Class
	case e.SearchClass != "":
		return e.SearchClass
	default:
		return e.DTOClass
	}
}

// Allowed reports whether action is enabled for the current entity.
func (ex *Exchange) Allowed(action string) bool {
	return !ex.Entity.IsDisabled(action)
}

// Call dispatches pattern for the current entity with the exchange
// prepended to args.
func (ex *Exchange) Call(ctx context.Context, pattern string, args ...any) (any, error) {
	return ex.c.dispatcher.Call(ctx, pattern, ex.Entity.Name, append([]any{ex}, args...)...)
}

// hook runs a pre* hook. Deprecation warnings are reported only when an
// application handler, not the built-in no-op, answers the hook.
func (ex *Exchange) hook(ctx context.Context, pattern string, item repository.Record) error {
	name, _, err := ex.c.dispatcher.Resolve(pattern, ex.Entity.Name)
	if err != nil {
		return err
	}
	_, owner, _ := ex.c.registry.Lookup(name)

	_, err = ex.c.dispatcher.Invoke(ctx, dispatch.Call{
		Pattern:              pattern,
		Entity:               ex.Entity.Name,
		Args:                 []any{ex, item},
		NoDeprecationWarning: owner == ex.c.defaultsOwner,
	})
	return err
}

func (ex *Exchange) publish(ctx context.Context, kind event.Kind, payload event.Payload) {
	evt, err := event.New(kind, event.Scope{
		RequestID: ex.RequestID,
		Action:    ex.Action,
		Config:    ex.Config,
		Entity:    ex.Entity,
	}, payload)
	if err != nil {
		ex.c.logger.Error("build event", "kind", kind, "error", err)
		return
	}
	ex.c.events.Publish(ctx, evt)
}

// redirectToReferrer navigates after a completed write.
func (ex *Exchange) redirectToReferrer() (*Response, error) {
	q := ex.Request.Query
	target, err := redirect.Resolve(redirect.Input{
		Entity:        ex.Entity.Name,
		RefererAction: q.Get("action"),
		RefererURL:    q.Get("referer"),
		MenuIndex:     q.Get("menuIndex"),
		SubmenuIndex:  q.Get("submenuIndex"),
		ID:            q.Get("id"),
		Item:          ex.Item,
		PrimaryKey:    ex.Entity.PrimaryKeyFieldName,
		Allowed:       ex.Allowed,
		Homepage:      ex.Config.Homepage,
	})
	if err != nil {
		return nil, err
	}
	return redirectTo(target.Href(ex.c.routes)), nil
}
