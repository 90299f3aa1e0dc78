package pass

import (
	"context"
	"slices"

	"github.com/roach88/adminpanel/internal/config"
)

// Default values applied by the normalizer.
const (
	DefaultMaxResults     = 15
	DefaultShowMaxResults = 10
	DefaultHomepageRoute  = "admin"
	DefaultTemplatePrefix = "@admin/"
)

// defaultActions lists the actions each view offers unless configured.
var defaultActions = map[string][]string{
	config.ViewList:   {"show", "edit", "delete", "new", "search"},
	config.ViewShow:   {"edit", "delete", "list"},
	config.ViewEdit:   {"delete", "list"},
	config.ViewNew:    {"list"},
	config.ViewSearch: {"show", "edit", "delete"},
}

// Normalizer fills in structural defaults so later passes and the
// dispatcher can rely on every view being complete.
type Normalizer struct{}

// NewNormalizer creates the normalizer pass.
func NewNormalizer() *Normalizer { return &Normalizer{} }

// Name implements pipeline.Pass.
func (*Normalizer) Name() string { return "normalize" }

// Process implements pipeline.Pass.
func (*Normalizer) Process(_ context.Context, in *config.Tree) (*config.Tree, error) {
	tree, err := in.Clone()
	if err != nil {
		return nil, err
	}

	if tree.Entities == nil {
		tree.Entities = map[string]*config.EntityConfig{}
	}
	if len(tree.EntityOrder) == 0 {
		tree.EntityOrder = sortedKeys(tree.Entities)
	}
	if tree.Show.MaxResults == 0 {
		tree.Show.MaxResults = DefaultShowMaxResults
	}

	for name, e := range tree.Entities {
		if e.Name == "" {
			e.Name = name
		}
		if e.Label == "" {
			e.Label = e.Name
		}
		normalizeViews(e, tree.Design.Templates)
	}

	normalizeHomepage(tree)
	return tree, nil
}

func normalizeViews(e *config.EntityConfig, designTemplates map[string]string) {
	if e.Templates == nil {
		e.Templates = make(map[string]string, len(config.Views))
	}

	for _, name := range config.Views {
		view := e.View(name)

		if len(view.Actions) == 0 {
			for _, a := range defaultActions[name] {
				view.Actions = append(view.Actions, config.ActionConfig{Name: a})
			}
		}
		view.Actions = slices.DeleteFunc(view.Actions, func(a config.ActionConfig) bool {
			return e.IsDisabled(a.Name)
		})
		for i := range view.Actions {
			if view.Actions[i].Type == "" {
				view.Actions[i].Type = "method"
			}
		}

		if (name == config.ViewList || name == config.ViewSearch) && view.MaxResults == 0 {
			view.MaxResults = DefaultMaxResults
		}
		if view.Sort != nil {
			view.Sort.Direction = config.NormalizeDirection(view.Sort.Direction)
		}

		if _, ok := e.Templates[name]; !ok {
			if tmpl, ok := designTemplates[name]; ok {
				e.Templates[name] = tmpl
			} else {
				e.Templates[name] = DefaultTemplatePrefix + name
			}
		}
	}
}

func normalizeHomepage(tree *config.Tree) {
	hp := &tree.Homepage
	if hp.URL != "" || hp.Route != "" {
		return
	}
	hp.Route = DefaultHomepageRoute
	if len(tree.EntityOrder) > 0 {
		hp.Params = map[string]string{
			"action": "list",
			"entity": tree.EntityOrder[0],
		}
	}
}
