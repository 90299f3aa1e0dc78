package config

import (
	"encoding/json"
	"fmt"
)

// FormatVersion identifies the layout of a resolved Tree. Cached trees with
// a different version are ignored.
const FormatVersion = 1

// Tree is the admin configuration, raw or resolved.
//
// A raw tree comes from the loader. A resolved tree is the output of the
// pipeline and is shared read-only for the process lifetime.
type Tree struct {
	// Version is stamped on resolved trees.
	Version int `json:"version,omitempty"`

	Design   Design   `json:"design"`
	Homepage Homepage `json:"homepage"`
	Show     Global   `json:"show"`

	// Schema declares the data classes the admin may introspect.
	Schema map[string]ClassDecl `json:"schema,omitempty" validate:"dive"`

	// Entities maps entity name to its configuration.
	Entities map[string]*EntityConfig `json:"entities" validate:"dive"`

	// EntityOrder is the declaration order of Entities.
	EntityOrder []string `json:"entity_order,omitempty"`

	// Internal holds derived values computed by passes.
	Internal Internal `json:"_internal"`
}

// Design holds presentation options.
type Design struct {
	BrandColor  string            `json:"brand_color,omitempty" validate:"omitempty,hexcolor"`
	ColorScheme string            `json:"color_scheme,omitempty" validate:"omitempty,oneof=dark light"`
	RTL         *bool             `json:"rtl,omitempty"`
	Menu        []MenuItem        `json:"menu,omitempty" validate:"dive"`
	Templates   map[string]string `json:"templates,omitempty"`
}

// MenuItem is one entry of the navigation menu.
type MenuItem struct {
	Label    string     `json:"label,omitempty"`
	Entity   string     `json:"entity,omitempty"`
	URL      string     `json:"url,omitempty" validate:"omitempty,uri"`
	Route    string     `json:"route,omitempty"`
	Icon     string     `json:"icon,omitempty"`
	Children []MenuItem `json:"children,omitempty" validate:"dive"`
}

// Homepage is the fallback navigation target.
type Homepage struct {
	Route  string            `json:"route,omitempty"`
	URL    string            `json:"url,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// Global holds options that apply across entities.
type Global struct {
	// MaxResults bounds autocomplete pages.
	MaxResults int `json:"max_results,omitempty" validate:"gte=0"`
}

// Internal holds values that passes derive and users never author.
type Internal struct {
	CustomCSS string `json:"custom_css,omitempty"`
}

// ClassDecl declares a data class. Classes without Mapping exist but
// cannot be introspected.
type ClassDecl struct {
	Properties []string `json:"properties,omitempty"`
	Mapping    *Mapping `json:"mapping,omitempty"`
}

// Mapping is the persistence shape of a class.
type Mapping struct {
	ID           []string               `json:"id,omitempty"`
	Fields       map[string]FieldDecl   `json:"fields,omitempty"`
	Associations map[string]Association `json:"associations,omitempty" validate:"dive"`
}

// FieldDecl describes a scalar column.
type FieldDecl struct {
	Type     string `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`
	Length   int    `json:"length,omitempty"`
}

// Association describes a relation to another class.
type Association struct {
	Kind         AssociationKind `json:"kind" validate:"required,oneof=one_to_one many_to_one one_to_many many_to_many"`
	TargetEntity string          `json:"target_entity"`
}

// Entity returns the named entity or nil.
func (t *Tree) Entity(name string) *EntityConfig {
	if t == nil || t.Entities == nil {
		return nil
	}
	return t.Entities[name]
}

// OrderedEntities returns entities in declaration order. Entities missing
// from EntityOrder follow in sorted name order.
func (t *Tree) OrderedEntities() []*EntityConfig {
	seen := make(map[string]bool, len(t.Entities))
	out := make([]*EntityConfig, 0, len(t.Entities))
	for _, name := range t.EntityOrder {
		if e, ok := t.Entities[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, e)
		}
	}
	for _, name := range sortedKeys(t.Entities) {
		if !seen[name] {
			out = append(out, t.Entities[name])
		}
	}
	return out
}

// Clone returns a deep copy of the tree. Passes clone their input so that a
// failed pass never leaves a half-modified tree behind.
func (t *Tree) Clone() (*Tree, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("clone tree: %w", err)
	}
	var out Tree
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone tree: %w", err)
	}
	return &out, nil
}

// Decode parses a JSON-encoded tree.
func Decode(data []byte) (*Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return &t, nil
}

// Encode serializes the tree as JSON.
func (t *Tree) Encode() ([]byte, error) {
	return json.Marshal(t)
}
