package pass

import (
	"fmt"

	"github.com/roach88/adminpanel/internal/pipeline"
	"github.com/roach88/adminpanel/internal/render"
	"github.com/roach88/adminpanel/internal/schema"
)

// Deps are the collaborators of the default passes.
type Deps struct {
	Schema   schema.Provider
	Renderer render.Renderer
	Locale   string
	Debug    bool
}

// RegisterDefaults adds the four standard passes to m at their default
// priorities.
func RegisterDefaults(m *pipeline.Manager, deps Deps) error {
	if deps.Schema == nil {
		return fmt.Errorf("register passes: schema provider is required")
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewTemplates(nil)
	}

	passes := []struct {
		p        pipeline.Pass
		priority int
	}{
		{NewNormalizer(), PriorityNormalize},
		{NewMetadata(deps.Schema), PriorityMetadata},
		{NewFields(), PriorityFields},
		{NewDesign(deps.Renderer, deps.Locale, deps.Debug), PriorityDesign},
	}
	for _, entry := range passes {
		if err := m.AddPassWithPriority(entry.p, entry.priority); err != nil {
			return err
		}
	}
	return nil
}
