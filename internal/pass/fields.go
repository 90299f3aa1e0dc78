package pass

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/adminpanel/internal/config"
)

// Fields completes view fields from the introspected properties. It must
// run after Metadata.
type Fields struct {
	title cases.Caser
}

// NewFields creates the field pass.
func NewFields() *Fields {
	return &Fields{title: cases.Title(language.Und, cases.NoLower)}
}

// Name implements pipeline.Pass.
func (*Fields) Name() string { return "fields" }

// Process implements pipeline.Pass.
func (f *Fields) Process(_ context.Context, in *config.Tree) (*config.Tree, error) {
	tree, err := in.Clone()
	if err != nil {
		return nil, err
	}

	for _, e := range tree.Entities {
		for _, name := range config.Views {
			view := e.View(name)
			if len(view.Fields) == 0 {
				view.Fields = defaultFields(e, name)
			}
			for i := range view.Fields {
				f.complete(e, name, &view.Fields[i])
			}
		}
	}
	return tree, nil
}

func (f *Fields) complete(e *config.EntityConfig, view string, field *config.FieldConfig) {
	if field.Label == "" {
		field.Label = f.humanize(field.Property)
	}

	prop, known := e.Properties[field.Property]
	if !known {
		// Virtual fields have no column to order by.
		if len(e.Properties) > 0 {
			field.Virtual = true
		}
		field.Sortable = boolPtr(false)
		return
	}

	if field.Type == "" {
		field.Type = prop.Type
	}
	field.AssociationType = prop.AssociationType
	if field.DataType == "" {
		field.DataType = field.Type
		if view == config.ViewList && prop.Type == "boolean" {
			field.DataType = config.DataTypeToggle
		}
	}
	if !prop.Sortable || prop.AssociationType.IsToMany() {
		field.Sortable = boolPtr(false)
	}
}

// defaultFields lists every property, primary key first. Form views skip
// the primary key and multi-valued associations are left to show views.
func defaultFields(e *config.EntityConfig, view string) []config.FieldConfig {
	names := make([]string, 0, len(e.Properties))
	for name := range e.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := names[i] == e.PrimaryKeyFieldName, names[j] == e.PrimaryKeyFieldName
		if pi != pj {
			return pi
		}
		return names[i] < names[j]
	})

	fields := make([]config.FieldConfig, 0, len(names))
	for _, name := range names {
		prop := e.Properties[name]
		switch view {
		case config.ViewNew, config.ViewEdit:
			if name == e.PrimaryKeyFieldName {
				continue
			}
		case config.ViewList, config.ViewSearch:
			if prop.AssociationType.IsToMany() {
				continue
			}
		}
		fields = append(fields, config.FieldConfig{Property: name})
	}
	return fields
}

// humanize turns "createdAt" or "created_at" into "Created at".
func (f *Fields) humanize(property string) string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for i, r := range property {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0:
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	if len(words) == 0 {
		return ""
	}
	words[0] = f.title.String(words[0])
	return strings.Join(words, " ")
}

func boolPtr(b bool) *bool { return &b }
