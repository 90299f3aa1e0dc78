package pass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adminpanel/internal/apperr"
	"github.com/roach88/adminpanel/internal/config"
)

func TestMetadataIntrospectsMappedClass(t *testing.T) {
	p := NewMetadata(testSchema(t))
	out, err := p.Process(context.Background(), treeWith(map[string]*config.EntityConfig{
		"Product": {Name: "Product", Class: "App.Product"},
	}))
	require.NoError(t, err)

	product := out.Entity("Product")
	assert.True(t, product.Introspected)
	assert.Equal(t, "id", product.PrimaryKeyFieldName)
	assert.Equal(t, "App.Product", product.SchemaClass)
	require.Len(t, product.Properties, 6)

	assert.Equal(t, config.PropertyMetadata{Type: "integer", ID: true, Sortable: true}, product.Properties["id"])
	assert.Equal(t, 255, product.Properties["name"].Length)

	category := product.Properties["category"]
	assert.Equal(t, config.TypeAssociation, category.Type)
	assert.Equal(t, config.ManyToOne, category.AssociationType)
	assert.Equal(t, "App.Category", category.TargetEntity)
	assert.True(t, category.Sortable)
}

func TestMetadataToManyNeverSortable(t *testing.T) {
	p := NewMetadata(testSchema(t))
	out, err := p.Process(context.Background(), treeWith(map[string]*config.EntityConfig{
		"Product": {Name: "Product", Class: "App.Product"},
	}))
	require.NoError(t, err)

	for name, prop := range out.Entity("Product").Properties {
		if prop.AssociationType.IsToMany() {
			assert.False(t, prop.Sortable, "%s must not be sortable", name)
		}
	}
	assert.Equal(t, config.ManyToMany, out.Entity("Product").Properties["tags"].AssociationType)
}

func TestMetadataSearchClassTakesPrecedence(t *testing.T) {
	p := NewMetadata(testSchema(t))
	out, err := p.Process(context.Background(), treeWith(map[string]*config.EntityConfig{
		"Product": {Name: "Product", Class: "App.Product", SearchClass: "App.ProductSearch"},
	}))
	require.NoError(t, err)

	product := out.Entity("Product")
	assert.Equal(t, "App.ProductSearch", product.SchemaClass)
	assert.Equal(t, "App.Product", product.Class, "class is left unchanged")
	assert.Len(t, product.Properties, 2)
	assert.Contains(t, product.Properties, "name")
	assert.NotContains(t, product.Properties, "price")
}

func TestMetadataDTOOnly(t *testing.T) {
	p := NewMetadata(testSchema(t))
	out, err := p.Process(context.Background(), treeWith(map[string]*config.EntityConfig{
		"Report":  {Name: "Report", DTOClass: "App.ReportDTO"},
		"Summary": {Name: "Summary", DTOClass: "App.SummaryDTO"},
	}))
	require.NoError(t, err)

	report := out.Entity("Report")
	assert.True(t, report.Introspected)
	assert.Equal(t, "id", report.PrimaryKeyFieldName)
	assert.NotNil(t, report.Properties)
	assert.Empty(t, report.Properties)

	summary := out.Entity("Summary")
	assert.True(t, summary.Introspected)
	assert.Equal(t, config.NoIdentifier, summary.PrimaryKeyFieldName)
	assert.False(t, summary.HasIdentifier())
}

func TestMetadataErrors(t *testing.T) {
	tests := []struct {
		name   string
		entity *config.EntityConfig
		code   apperr.Code
	}{
		{"unknown class", &config.EntityConfig{Name: "X", Class: "App.Missing"}, apperr.CodeInvalidEntityClass},
		{"unmapped class", &config.EntityConfig{Name: "X", Class: "App.Shape"}, apperr.CodeUnmappedEntityClass},
		{"composite key", &config.EntityConfig{Name: "X", Class: "App.Ledger"}, apperr.CodeCompositePrimaryKey},
		{"unknown search class", &config.EntityConfig{Name: "X", Class: "App.Product", SearchClass: "App.Nope"}, apperr.CodeInvalidEntityClass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := treeWith(map[string]*config.EntityConfig{"X": tt.entity})
			out, err := NewMetadata(testSchema(t)).Process(context.Background(), in)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, apperr.Is(err, tt.code), "got %v", err)

			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "X", appErr.Entity)
			assert.False(t, in.Entities["X"].Introspected, "input is never modified")
		})
	}
}

func TestMetadataSkipsIntrospectedEntities(t *testing.T) {
	// The class does not exist; an introspected entity must not be looked up again.
	in := treeWith(map[string]*config.EntityConfig{
		"Legacy": {Name: "Legacy", Class: "App.Gone", Introspected: true, PrimaryKeyFieldName: "id"},
	})
	out, err := NewMetadata(testSchema(t)).Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "id", out.Entity("Legacy").PrimaryKeyFieldName)
}

func TestMetadataUnsortsToManyOnIntrospectedEntities(t *testing.T) {
	in := treeWith(map[string]*config.EntityConfig{
		"Product": {
			Name:                "Product",
			Class:               "App.Product",
			Introspected:        true,
			PrimaryKeyFieldName: "id",
			Properties: map[string]config.PropertyMetadata{
				"tags": {Type: config.TypeAssociation, AssociationType: config.ManyToMany, Sortable: true},
				"name": {Type: "string", Sortable: true},
			},
		},
	})
	out, err := NewMetadata(testSchema(t)).Process(context.Background(), in)
	require.NoError(t, err)

	props := out.Entity("Product").Properties
	assert.False(t, props["tags"].Sortable)
	assert.True(t, props["name"].Sortable)
	assert.True(t, in.Entities["Product"].Properties["tags"].Sortable, "input is never modified")
}

func TestMetadataIdempotent(t *testing.T) {
	p := NewMetadata(testSchema(t))
	in := treeWith(map[string]*config.EntityConfig{
		"Product": {Name: "Product", Class: "App.Product"},
		"Report":  {Name: "Report", DTOClass: "App.ReportDTO"},
	})

	once, err := p.Process(context.Background(), in)
	require.NoError(t, err)
	twice, err := p.Process(context.Background(), once)
	require.NoError(t, err)
	requireSameTree(t, once, twice)
}
