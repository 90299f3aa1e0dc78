package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/adminpanel/internal/apperr"
	"github.com/roach88/adminpanel/internal/canonical"
	"github.com/roach88/adminpanel/internal/config"
)

// ErrPipelineSealed is returned when a pass is registered after the
// configuration has been resolved.
var ErrPipelineSealed = errors.New("pipeline: configuration already resolved; passes can no longer be added")

// Pass transforms a configuration tree. Implementations must not modify
// their input and must be idempotent.
type Pass interface {
	Name() string
	Process(ctx context.Context, tree *config.Tree) (*config.Tree, error)
}

// KeyedPass is a Pass whose output depends on settings outside the tree,
// such as the process locale. CacheKey folds those settings into the
// configuration fingerprint.
type KeyedPass interface {
	Pass
	CacheKey() string
}

// Cache stores resolved trees by fingerprint.
type Cache interface {
	// Get returns the tree stored under fingerprint, or ok=false.
	Get(ctx context.Context, fingerprint string) (tree *config.Tree, ok bool, err error)

	// Save stores a resolved tree. Saving the same fingerprint twice
	// stores the same content.
	Save(ctx context.Context, fingerprint string, tree *config.Tree) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithCache sets the cache consulted before running the passes.
func WithCache(c Cache) Option {
	return func(m *Manager) {
		m.cache = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

type registered struct {
	pass     Pass
	priority int
	seq      int
}

// Manager owns the raw tree, the ordered passes and the resolved tree.
//
// The tree is resolved at most once per Manager, on first access. The
// outcome (tree or error) is memoized; a failed resolution publishes no
// tree and every later call returns the same error. Cancellation of the
// caller's context is not memoized: the next call resolves again.
type Manager struct {
	raw    *config.Tree
	cache  Cache
	logger *slog.Logger

	mu     sync.Mutex
	passes []registered
	sealed bool

	resolveMu sync.Mutex
	done      bool
	tree      *config.Tree
	err       error
}

// New creates a Manager over a raw tree.
func New(raw *config.Tree, opts ...Option) *Manager {
	m := &Manager{
		raw:    raw,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddPass registers a pass with priority 0.
func (m *Manager) AddPass(p Pass) error {
	return m.AddPassWithPriority(p, 0)
}

// AddPassWithPriority registers a pass. Higher priorities run first;
// equal priorities run in registration order.
func (m *Manager) AddPassWithPriority(p Pass, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sealed {
		return fmt.Errorf("add pass %s: %w", p.Name(), ErrPipelineSealed)
	}
	m.passes = append(m.passes, registered{pass: p, priority: priority, seq: len(m.passes)})
	return nil
}

// Passes returns the pass names in execution order.
func (m *Manager) Passes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := orderedPasses(m.passes)
	names := make([]string, len(ordered))
	for i, p := range ordered {
		names[i] = p.Name()
	}
	return names
}

// Fingerprint returns the cache key of the raw tree and current passes.
func (m *Manager) Fingerprint() (string, error) {
	m.mu.Lock()
	passes := orderedPasses(m.passes)
	m.mu.Unlock()
	return canonical.Fingerprint(m.raw, passKeys(passes))
}

// passKeys identifies each pass for the fingerprint: its name, followed by
// its cache key when it has one.
func passKeys(passes []Pass) []string {
	keys := make([]string, len(passes))
	for i, p := range passes {
		keys[i] = p.Name()
		if kp, ok := p.(KeyedPass); ok {
			keys[i] = p.Name() + "(" + kp.CacheKey() + ")"
		}
	}
	return keys
}

// Resolve returns the resolved tree, running the pipeline on first call.
// Concurrent callers wait for the same run.
func (m *Manager) Resolve(ctx context.Context) (*config.Tree, error) {
	m.resolveMu.Lock()
	defer m.resolveMu.Unlock()
	if m.done {
		return m.tree, m.err
	}

	m.mu.Lock()
	m.sealed = true
	passes := orderedPasses(m.passes)
	m.mu.Unlock()

	tree, err := m.resolve(ctx, passes)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil, err
	}
	m.tree, m.err, m.done = tree, err, true
	return tree, err
}

func (m *Manager) resolve(ctx context.Context, passes []Pass) (*config.Tree, error) {
	fingerprint, err := canonical.Fingerprint(m.raw, passKeys(passes))
	if err != nil {
		m.logger.Warn("configuration fingerprint failed, cache disabled", "error", err)
		fingerprint = ""
	}

	if m.cache != nil && fingerprint != "" {
		cached, ok, err := m.cache.Get(ctx, fingerprint)
		switch {
		case err != nil:
			m.logger.Warn("configuration cache read failed", "fingerprint", fingerprint, "error", err)
		case ok && cached != nil && cached.Version == config.FormatVersion:
			m.logger.Debug("configuration cache hit", "fingerprint", fingerprint)
			return cached, nil
		case ok:
			m.logger.Debug("configuration cache entry ignored", "fingerprint", fingerprint)
		}
	}

	tree := m.raw
	if tree == nil {
		tree = &config.Tree{}
	}
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.logger.Debug("running configuration pass", "pass", p.Name())
		out, err := p.Process(ctx, tree)
		if err != nil {
			return nil, fmt.Errorf("pass %s: %w", p.Name(), err)
		}
		if out == nil {
			return nil, fmt.Errorf("pass %s: returned no tree", p.Name())
		}
		tree = out
	}

	if tree == m.raw {
		// No pass ran; never hand out the caller's raw tree for stamping.
		cloned, err := tree.Clone()
		if err != nil {
			return nil, err
		}
		tree = cloned
	}
	tree.Version = config.FormatVersion

	if m.cache != nil && fingerprint != "" {
		if err := m.cache.Save(ctx, fingerprint, tree); err != nil {
			m.logger.Warn("configuration cache write failed", "fingerprint", fingerprint, "error", err)
		}
	}

	m.logger.Info("configuration resolved",
		"entities", len(tree.Entities),
		"passes", len(passes),
	)
	return tree, nil
}

// Lookup returns the value at a dotted path of the resolved tree. An
// empty path returns the whole tree as a generic map.
func (m *Manager) Lookup(ctx context.Context, path string) (any, error) {
	tree, err := m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Lookup(path)
}

// EntityConfig returns the resolved configuration of the named entity.
func (m *Manager) EntityConfig(ctx context.Context, name string) (*config.EntityConfig, error) {
	tree, err := m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	e := tree.Entity(name)
	if e == nil {
		return nil, apperr.UndefinedEntity(name)
	}
	return e, nil
}

// EntityConfigByClass returns the first entity, in declaration order, whose
// class or dto_class equals class.
func (m *Manager) EntityConfigByClass(ctx context.Context, class string) (*config.EntityConfig, bool, error) {
	tree, err := m.Resolve(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, e := range tree.OrderedEntities() {
		if e.Class == class || e.DTOClass == class {
			return e, true, nil
		}
	}
	return nil, false, nil
}

// ActionConfig returns the configuration of an action in a view. Unknown
// views and actions yield an empty ActionConfig.
func (m *Manager) ActionConfig(ctx context.Context, entity, view, action string) (config.ActionConfig, error) {
	e, err := m.EntityConfig(ctx, entity)
	if err != nil {
		return config.ActionConfig{}, err
	}
	v := e.View(view)
	if v == nil {
		return config.ActionConfig{}, nil
	}
	a, _ := v.Action(action)
	return a, nil
}

// IsActionEnabled reports whether action is not disabled for the entity
// and is offered by the view.
func (m *Manager) IsActionEnabled(ctx context.Context, entity, view, action string) (bool, error) {
	e, err := m.EntityConfig(ctx, entity)
	if err != nil {
		return false, err
	}
	if e.IsDisabled(action) {
		return false, nil
	}
	v := e.View(view)
	if v == nil {
		return false, nil
	}
	_, ok := v.Action(action)
	return ok, nil
}

func orderedPasses(regs []registered) []Pass {
	sorted := make([]registered, len(regs))
	copy(sorted, regs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].priority != sorted[j].priority {
			return sorted[i].priority > sorted[j].priority
		}
		return sorted[i].seq < sorted[j].seq
	})
	out := make([]Pass, len(sorted))
	for i, r := range sorted {
		out[i] = r.pass
	}
	return out
}
