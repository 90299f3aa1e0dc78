package dispatch

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adminpanel/internal/apperr"
	"github.com/roach88/adminpanel/internal/config"
)

type baseController struct{}

func (baseController) Handlers() map[string]Handler {
	return map[string]Handler{
		"listAction":    constant("list"),
		"deleteAction":  constant("delete"),
		"createForm":    constant("generic form"),
		"prePersist":    constant("generic pre"),
		"persistEntity": constant("persist"),
	}
}

type productController struct{}

func (productController) Handlers() map[string]Handler {
	return map[string]Handler{
		"createProductForm": constant("product form"),
		"prePersistProduct": constant("product pre"),
	}
}

func constant(v string) Handler {
	return func(context.Context, ...any) (any, error) {
		return v, nil
	}
}

func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.RegisterProvider(baseController{}))
	require.NoError(t, reg.RegisterProvider(productController{}))
	return New(reg, OwnerOf(baseController{}), opts...)
}

func TestResolvePrefersEntitySpecificHandler(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	got, err := d.Call(ctx, "create<EntityName>Form", "Product")
	require.NoError(t, err)
	assert.Equal(t, "product form", got)

	got, err = d.Call(ctx, "create<EntityName>Form", "Category")
	require.NoError(t, err)
	assert.Equal(t, "generic form", got)
}

func TestResolveReportsGenericNameWhenMissing(t *testing.T) {
	d := newTestDispatcher(t)

	_, _, err := d.Resolve("export<EntityName>Action", "Product")
	require.Error(t, err)
	assert.True(t, apperr.IsHandlerNotFound(err))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "exportAction", ae.Handler)
	assert.Equal(t, "dispatch.baseController", ae.Owner)
}

func TestResolvePatternWithoutPlaceholder(t *testing.T) {
	d := newTestDispatcher(t)

	name, _, err := d.Resolve("listAction", "Product")
	require.NoError(t, err)
	assert.Equal(t, "listAction", name)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("a", "listAction", constant("a")))

	err := reg.Register("b", "listAction", constant("b"))
	require.ErrorIs(t, err, ErrConflictingRegistration)
	assert.Contains(t, err.Error(), "already provided by a")

	h, owner, ok := reg.Lookup("listAction")
	require.True(t, ok)
	assert.Equal(t, "a", owner)
	got, err := h(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestRegisterValidatesInput(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.Register("a", "", constant("x")), ErrEmptyName)
	assert.ErrorIs(t, reg.Register("a", "listAction", nil), ErrNilHandler)
	assert.ErrorIs(t, reg.Override("a", "", constant("x")), ErrEmptyName)
	assert.Empty(t, reg.Names())
}

func TestOverrideReplacesHandler(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterProvider(baseController{}))
	require.NoError(t, reg.OverrideProvider(overrideController{}))

	d := New(reg, "base")
	got, err := d.Call(context.Background(), "listAction", "Product")
	require.NoError(t, err)
	assert.Equal(t, "overridden", got)

	_, owner, _ := reg.Lookup("listAction")
	assert.Equal(t, "dispatch.overrideController", owner)
}

type overrideController struct{}

func (overrideController) Handlers() map[string]Handler {
	return map[string]Handler{"listAction": constant("overridden")}
}

func TestDeprecatedHookWarns(t *testing.T) {
	var buf bytes.Buffer
	var seen []Deprecation
	d := newTestDispatcher(t,
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithObserver(func(dep Deprecation) { seen = append(seen, dep) }),
	)

	got, err := d.Call(context.Background(), "prePersist<EntityName>", "Product")
	require.NoError(t, err)
	assert.Equal(t, "product pre", got)

	require.Len(t, seen, 1)
	assert.Equal(t, Deprecation{Handler: "prePersistProduct", Replacement: "persistProduct"}, seen[0])
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "replacement=persistProduct")
}

func TestDeprecationWarningCanBeSuppressed(t *testing.T) {
	var seen []Deprecation
	d := newTestDispatcher(t, WithObserver(func(dep Deprecation) { seen = append(seen, dep) }))

	got, err := d.Invoke(context.Background(), Call{
		Pattern:              "prePersist<EntityName>",
		Entity:               "Category",
		NoDeprecationWarning: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "generic pre", got)
	assert.Empty(t, seen)
}

func TestNonDeprecatedHookDoesNotWarn(t *testing.T) {
	var seen []Deprecation
	d := newTestDispatcher(t, WithObserver(func(dep Deprecation) { seen = append(seen, dep) }))

	_, err := d.Call(context.Background(), "persist<EntityName>", "Product")
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestReplacementName(t *testing.T) {
	tests := map[string]string{
		"prePersistEntity": "persistEntity",
		"preUpdateEntity":  "updateEntity",
		"preRemoveEntity":  "removeEntity",
		"preUpdate":        "update",
		"pre":              "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ReplacementName(in))
		})
	}
}

func TestDispatchActionGuardsDisabledActions(t *testing.T) {
	var called bool
	reg := NewRegistry()
	require.NoError(t, reg.Register("c", "deleteAction", func(context.Context, ...any) (any, error) {
		called = true
		return nil, nil
	}))
	d := New(reg, "c")

	entity := &config.EntityConfig{Name: "Product", DisabledActions: []string{"delete"}}
	_, err := d.DispatchAction(context.Background(), entity, "delete")
	require.Error(t, err)
	assert.True(t, apperr.IsForbidden(err))
	assert.False(t, called)
}

func TestDispatchActionRunsActionHandler(t *testing.T) {
	d := newTestDispatcher(t)
	entity := &config.EntityConfig{Name: "Product"}

	got, err := d.DispatchAction(context.Background(), entity, "list")
	require.NoError(t, err)
	assert.Equal(t, "list", got)

	_, err = d.DispatchAction(context.Background(), entity, "export")
	assert.True(t, apperr.IsHandlerNotFound(err))
}

func TestHandlerReceivesArgs(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("c", "echo", func(_ context.Context, args ...any) (any, error) {
		return args, nil
	}))
	d := New(reg, "c")

	got, err := d.Call(context.Background(), "echo", "Product", 1, "two")
	require.NoError(t, err)
	assert.Equal(t, []any{1, "two"}, got)
}
