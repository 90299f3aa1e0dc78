package pass

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/schema"
)

// testSchema declares a small catalog:
//   - App.Product: id, name, price, enabled, category (many_to_one), tags (many_to_many)
//   - App.ProductSearch: id, name
//   - App.Ledger: composite key (year, number)
//   - App.Shape: declared but unmapped
//   - App.ReportDTO: properties id, total
//   - App.SummaryDTO: properties total only
func testSchema(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.FromConfig(map[string]config.ClassDecl{
		"App.Product": {Mapping: &config.Mapping{
			ID: []string{"id"},
			Fields: map[string]config.FieldDecl{
				"id":      {Type: "integer"},
				"name":    {Type: "string", Length: 255},
				"price":   {Type: "decimal"},
				"enabled": {Type: "boolean"},
			},
			Associations: map[string]config.Association{
				"category": {Kind: config.ManyToOne, TargetEntity: "App.Category"},
				"tags":     {Kind: config.ManyToMany, TargetEntity: "App.Tag"},
			},
		}},
		"App.ProductSearch": {Mapping: &config.Mapping{
			ID: []string{"id"},
			Fields: map[string]config.FieldDecl{
				"id":   {Type: "integer"},
				"name": {Type: "string"},
			},
		}},
		"App.Ledger": {Mapping: &config.Mapping{
			ID: []string{"year", "number"},
			Fields: map[string]config.FieldDecl{
				"year":   {Type: "integer"},
				"number": {Type: "integer"},
			},
		}},
		"App.Shape":      {},
		"App.ReportDTO":  {Properties: []string{"id", "total"}},
		"App.SummaryDTO": {Properties: []string{"total"}},
	})
	require.NoError(t, err)
	return reg
}

func treeWith(entities map[string]*config.EntityConfig) *config.Tree {
	return &config.Tree{Entities: entities}
}

// requireSameTree compares trees by their serialized form, which is what
// the cache and the accessor observe.
func requireSameTree(t *testing.T, expected, actual *config.Tree) {
	t.Helper()
	a, err := expected.Encode()
	require.NoError(t, err)
	b, err := actual.Encode()
	require.NoError(t, err)
	require.JSONEq(t, string(a), string(b))
}
