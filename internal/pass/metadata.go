package pass

import (
	"context"
	"errors"
	"slices"

	"github.com/roach88/adminpanel/internal/apperr"
	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/schema"
)

// Metadata introspects the schema provider to fill in each entity's
// primary key and property metadata.
//
// Entities already marked introspected are skipped, which makes the pass
// idempotent. When search_class is set it is introspected instead of
// class; the chosen class is recorded in schema_class.
type Metadata struct {
	provider schema.Provider
}

// NewMetadata creates the introspection pass.
func NewMetadata(provider schema.Provider) *Metadata {
	return &Metadata{provider: provider}
}

// Name implements pipeline.Pass.
func (*Metadata) Name() string { return "metadata" }

// Process implements pipeline.Pass.
func (m *Metadata) Process(_ context.Context, in *config.Tree) (*config.Tree, error) {
	tree, err := in.Clone()
	if err != nil {
		return nil, err
	}

	// Declaration order makes the first reported error deterministic.
	for _, e := range tree.OrderedEntities() {
		if e.Introspected {
			unsortToMany(e.Properties)
			continue
		}
		if err := m.introspect(e); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func (m *Metadata) introspect(e *config.EntityConfig) error {
	class := e.Class
	if e.SearchClass != "" {
		class = e.SearchClass
	}

	if class == "" && e.DTOClass != "" {
		e.PrimaryKeyFieldName = config.NoIdentifier
		if m.provider.HasProperty(e.DTOClass, "id") {
			e.PrimaryKeyFieldName = "id"
		}
		e.Properties = map[string]config.PropertyMetadata{}
		e.Introspected = true
		return nil
	}

	meta, err := m.provider.MetadataFor(class)
	switch {
	case errors.Is(err, schema.ErrUnknownClass):
		return apperr.InvalidEntityClass(e.Name, class)
	case errors.Is(err, schema.ErrUnmappedClass):
		return apperr.UnmappedEntityClass(e.Name, class)
	case err != nil:
		return err
	}

	if len(meta.Identifier) > 1 {
		return apperr.CompositePrimaryKey(e.Name, class, meta.Identifier)
	}

	e.SchemaClass = class
	e.PrimaryKeyFieldName = config.NoIdentifier
	if len(meta.Identifier) == 1 {
		e.PrimaryKeyFieldName = meta.Identifier[0]
	}
	e.Properties = properties(meta)
	e.Introspected = true
	return nil
}

func properties(meta *schema.ClassMetadata) map[string]config.PropertyMetadata {
	props := make(map[string]config.PropertyMetadata, len(meta.Fields)+len(meta.Associations))

	for name, f := range meta.Fields {
		props[name] = config.PropertyMetadata{
			Type:     f.Type,
			Nullable: f.Nullable,
			Length:   f.Length,
			ID:       slices.Contains(meta.Identifier, name),
			Sortable: true,
		}
	}

	for name, a := range meta.Associations {
		props[name] = config.PropertyMetadata{
			Type:            config.TypeAssociation,
			AssociationType: a.Kind,
			TargetEntity:    a.TargetEntity,
			Nullable:        true,
			Sortable:        true,
		}
	}
	unsortToMany(props)
	return props
}

// unsortToMany clears the sortable flag of multi-valued associations, which
// cannot be ordered by whatever the input says.
func unsortToMany(props map[string]config.PropertyMetadata) {
	for name, p := range props {
		if p.AssociationType.IsToMany() && p.Sortable {
			p.Sortable = false
			props[name] = p
		}
	}
}
