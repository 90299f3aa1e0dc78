package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrEmptyName is returned when a handler is registered without a name.
	ErrEmptyName = errors.New("dispatch: empty handler name")

	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("dispatch: nil handler")

	// ErrConflictingRegistration indicates a second registration of a
	// handler name without Override.
	ErrConflictingRegistration = errors.New("dispatch: conflicting handler registration")
)

// Handler is one named behavior. Arguments are positional and specific to
// the handler family.
type Handler func(ctx context.Context, args ...any) (any, error)

// HandlerProvider is implemented by hosting controllers. The returned map
// is keyed by concrete handler name, for example "listAction" or
// "createProductForm".
type HandlerProvider interface {
	Handlers() map[string]Handler
}

type entry struct {
	handler Handler
	owner   string
}

// Registry maps concrete handler names to handlers. It is filled at
// startup and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a handler under name. A name can be registered once.
func (r *Registry) Register(owner, name string, h Handler) error {
	if name == "" {
		return ErrEmptyName
	}
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s already provided by %s", ErrConflictingRegistration, name, old.owner)
	}
	r.entries[name] = entry{handler: h, owner: owner}
	return nil
}

// Override adds or replaces the handler registered under name.
func (r *Registry) Override(owner, name string, h Handler) error {
	if name == "" {
		return ErrEmptyName
	}
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, name)
	}

	r.mu.Lock()
	r.entries[name] = entry{handler: h, owner: owner}
	r.mu.Unlock()
	return nil
}

// RegisterProvider registers every handler of p. The owner is p's type name.
func (r *Registry) RegisterProvider(p HandlerProvider) error {
	owner := OwnerOf(p)
	handlers := p.Handlers()
	for _, name := range sortedNames(handlers) {
		if err := r.Register(owner, name, handlers[name]); err != nil {
			return err
		}
	}
	return nil
}

// OverrideProvider registers every handler of p, replacing existing ones.
func (r *Registry) OverrideProvider(p HandlerProvider) error {
	owner := OwnerOf(p)
	handlers := p.Handlers()
	for _, name := range sortedNames(handlers) {
		if err := r.Override(owner, name, handlers[name]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the handler registered under name and its owner.
func (r *Registry) Lookup(name string) (Handler, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	return e.handler, e.owner, ok
}

// Names returns the registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.entries)
}

// OwnerOf returns the type name used as the owner of p's handlers.
func OwnerOf(p any) string {
	return fmt.Sprintf("%T", p)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
