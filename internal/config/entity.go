package config

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// NoIdentifier is the primary key field name of DTO-backed entities whose
// shape has no "id" property.
const NoIdentifier = ""

// View names.
const (
	ViewList   = "list"
	ViewShow   = "show"
	ViewNew    = "new"
	ViewEdit   = "edit"
	ViewSearch = "search"
)

// Views lists every view in a stable order.
var Views = []string{ViewList, ViewShow, ViewNew, ViewEdit, ViewSearch}

// EntityConfig is the configuration of one administered entity.
type EntityConfig struct {
	Name  string `json:"name,omitempty"`
	Label string `json:"label,omitempty"`

	// Class is the persisted data class. DTOClass alone switches off
	// schema introspection.
	Class           string `json:"class,omitempty"`
	DTOClass        string `json:"dto_class,omitempty"`
	DTOCreateMethod string `json:"dto_create_method,omitempty"`

	// SearchClass, when set, is introspected instead of Class.
	SearchClass string `json:"search_class,omitempty"`

	// SchemaClass records the class that was actually introspected.
	SchemaClass string `json:"schema_class,omitempty"`

	PrimaryKeyFieldName string `json:"primary_key_field_name,omitempty"`

	// Introspected marks an entity the metadata pass already processed.
	Introspected bool `json:"introspected,omitempty"`

	Properties map[string]PropertyMetadata `json:"properties,omitempty"`

	List   ViewConfig `json:"list"`
	Show   ViewConfig `json:"show"`
	New    ViewConfig `json:"new"`
	Edit   ViewConfig `json:"edit"`
	Search ViewConfig `json:"search"`

	DisabledActions []string          `json:"disabled_actions,omitempty"`
	Templates       map[string]string `json:"templates,omitempty"`
}

// ViewConfig configures one view of an entity.
type ViewConfig struct {
	Title      string         `json:"title,omitempty"`
	Fields     []FieldConfig  `json:"fields,omitempty" validate:"dive"`
	Actions    []ActionConfig `json:"actions,omitempty" validate:"dive"`
	MaxResults int            `json:"max_results,omitempty" validate:"gte=0"`
	Sort       *SortConfig    `json:"sort,omitempty"`
	DQLFilter  string         `json:"dql_filter,omitempty"`
}

// SortConfig is a default ordering.
type SortConfig struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=ASC DESC asc desc"`
}

// FieldConfig is one field of a view. It decodes from a bare property
// name or from an object.
type FieldConfig struct {
	Property        string          `json:"property"`
	Label           string          `json:"label,omitempty"`
	Type            string          `json:"type,omitempty"`
	DataType        string          `json:"data_type,omitempty"`
	AssociationType AssociationKind `json:"association_type,omitempty"`
	Sortable        *bool           `json:"sortable,omitempty"`
	Virtual         bool            `json:"virtual,omitempty"`
	Format          string          `json:"format,omitempty"`
}

// UnmarshalJSON accepts "name" or {"property": "name", ...}.
func (f *FieldConfig) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*f = FieldConfig{Property: name}
		return nil
	}
	type plain FieldConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("field: %w", err)
	}
	*f = FieldConfig(p)
	return nil
}

// IsSortable reports the effective sortable flag. Unset means sortable.
func (f FieldConfig) IsSortable() bool {
	return f.Sortable == nil || *f.Sortable
}

// ActionConfig is one action button of a view. It decodes from a bare
// action name or from an object.
type ActionConfig struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty" validate:"omitempty,oneof=method route"`
	Label    string `json:"label,omitempty"`
	Icon     string `json:"icon,omitempty"`
	CSSClass string `json:"css_class,omitempty"`
}

// UnmarshalJSON accepts "name" or {"name": "name", ...}.
func (a *ActionConfig) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*a = ActionConfig{Name: name}
		return nil
	}
	type plain ActionConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	*a = ActionConfig(p)
	return nil
}

// View returns the named view, or nil for an unknown view name.
func (e *EntityConfig) View(name string) *ViewConfig {
	switch name {
	case ViewList:
		return &e.List
	case ViewShow:
		return &e.Show
	case ViewNew:
		return &e.New
	case ViewEdit:
		return &e.Edit
	case ViewSearch:
		return &e.Search
	default:
		return nil
	}
}

// IsDisabled reports whether action is listed in DisabledActions.
func (e *EntityConfig) IsDisabled(action string) bool {
	return slices.Contains(e.DisabledActions, action)
}

// IsDTO reports whether the entity is backed by a DTO shape only.
func (e *EntityConfig) IsDTO() bool {
	return e.Class == "" && e.DTOClass != ""
}

// HasIdentifier reports whether the entity has a primary key field.
func (e *EntityConfig) HasIdentifier() bool {
	return e.PrimaryKeyFieldName != NoIdentifier
}

// Action returns the named action of a view.
func (v *ViewConfig) Action(name string) (ActionConfig, bool) {
	for _, a := range v.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return ActionConfig{}, false
}

// Field returns the field bound to property.
func (v *ViewConfig) Field(property string) (FieldConfig, bool) {
	for _, f := range v.Fields {
		if f.Property == property {
			return f, true
		}
	}
	return FieldConfig{}, false
}

// NormalizeDirection upper-cases a sort direction and defaults anything
// other than ASC to DESC.
func NormalizeDirection(dir string) string {
	if strings.EqualFold(dir, "ASC") {
		return "ASC"
	}
	return "DESC"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
