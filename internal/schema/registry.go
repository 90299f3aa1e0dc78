// Package schema provides the class metadata the introspection pass reads.
//
// A Provider answers two questions: what is the persistence mapping of a
// class, and does a (possibly unmapped) class expose a property. The
// in-memory Registry is populated from the schema section of the admin
// configuration and is safe for concurrent read access once built.
package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/adminpanel/internal/config"
)

var (
	// ErrUnknownClass is returned for a class that is not declared at all.
	ErrUnknownClass = errors.New("unknown class")

	// ErrUnmappedClass is returned for a declared class without a mapping.
	ErrUnmappedClass = errors.New("class is not mapped")
)

// Provider supplies class metadata.
type Provider interface {
	// MetadataFor returns the mapping of class. The error wraps
	// ErrUnknownClass or ErrUnmappedClass.
	MetadataFor(class string) (*ClassMetadata, error)

	// HasProperty reports whether class declares property. Unmapped
	// classes (DTO shapes) are answered too.
	HasProperty(class, property string) bool
}

// FieldMeta describes one scalar field.
type FieldMeta struct {
	Name     string
	Type     string
	Nullable bool
	Length   int
}

// AssociationMeta describes one relation.
type AssociationMeta struct {
	Name         string
	Kind         config.AssociationKind
	TargetEntity string
}

// ClassMetadata is the mapping of one class.
type ClassMetadata struct {
	Class        string
	Identifier   []string
	Fields       map[string]*FieldMeta
	Associations map[string]*AssociationMeta
}

// FieldNames returns scalar field names in sorted order.
func (m *ClassMetadata) FieldNames() []string {
	return sortedNames(m.Fields)
}

// AssociationNames returns association names in sorted order.
func (m *ClassMetadata) AssociationNames() []string {
	return sortedNames(m.Associations)
}

type classEntry struct {
	properties map[string]bool
	metadata   *ClassMetadata
}

// Registry is an in-memory Provider.
type Registry struct {
	classes map[string]*classEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*classEntry)}
}

// FromConfig builds a registry from the schema section of a tree.
func FromConfig(decls map[string]config.ClassDecl) (*Registry, error) {
	r := NewRegistry()
	for _, class := range sortedNames(decls) {
		decl := decls[class]
		if decl.Mapping == nil {
			r.Declare(class, decl.Properties...)
			continue
		}
		meta := &ClassMetadata{
			Class:        class,
			Identifier:   append([]string(nil), decl.Mapping.ID...),
			Fields:       make(map[string]*FieldMeta, len(decl.Mapping.Fields)),
			Associations: make(map[string]*AssociationMeta, len(decl.Mapping.Associations)),
		}
		for name, f := range decl.Mapping.Fields {
			meta.Fields[name] = &FieldMeta{Name: name, Type: f.Type, Nullable: f.Nullable, Length: f.Length}
		}
		for name, a := range decl.Mapping.Associations {
			if !a.Kind.Valid() {
				return nil, fmt.Errorf("schema %s.%s: invalid association kind %q", class, name, a.Kind)
			}
			meta.Associations[name] = &AssociationMeta{Name: name, Kind: a.Kind, TargetEntity: a.TargetEntity}
		}
		if len(meta.Identifier) == 0 {
			return nil, fmt.Errorf("schema %s: mapping declares no identifier field", class)
		}
		for _, id := range meta.Identifier {
			if _, ok := meta.Fields[id]; !ok {
				return nil, fmt.Errorf("schema %s: identifier %q is not a declared field", class, id)
			}
		}
		r.Register(meta, decl.Properties...)
	}
	return r, nil
}

// Declare records a class that exists without a persistence mapping.
func (r *Registry) Declare(class string, properties ...string) {
	r.classes[class] = &classEntry{properties: toSet(properties)}
}

// Register records a mapped class. Its fields and associations count as
// properties, along with any extra names given.
func (r *Registry) Register(meta *ClassMetadata, extra ...string) {
	props := toSet(extra)
	for name := range meta.Fields {
		props[name] = true
	}
	for name := range meta.Associations {
		props[name] = true
	}
	r.classes[meta.Class] = &classEntry{properties: props, metadata: meta}
}

// MetadataFor implements Provider.
func (r *Registry) MetadataFor(class string) (*ClassMetadata, error) {
	entry, ok := r.classes[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	if entry.metadata == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnmappedClass, class)
	}
	return entry.metadata, nil
}

// HasProperty implements Provider.
func (r *Registry) HasProperty(class, property string) bool {
	entry, ok := r.classes[class]
	return ok && entry.properties[property]
}

// Classes returns declared class names in sorted order.
func (r *Registry) Classes() []string {
	return sortedNames(r.classes)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
