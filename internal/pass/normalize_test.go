package pass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adminpanel/internal/config"
)

func actionNames(v config.ViewConfig) []string {
	names := make([]string, 0, len(v.Actions))
	for _, a := range v.Actions {
		names = append(names, a.Name)
	}
	return names
}

func TestNormalizerDefaults(t *testing.T) {
	out, err := NewNormalizer().Process(context.Background(), treeWith(map[string]*config.EntityConfig{
		"Product":  {Class: "App.Product"},
		"Category": {Class: "App.Category"},
	}))
	require.NoError(t, err)

	product := out.Entity("Product")
	assert.Equal(t, "Product", product.Name)
	assert.Equal(t, "Product", product.Label)
	assert.Equal(t, []string{"show", "edit", "delete", "new", "search"}, actionNames(product.List))
	assert.Equal(t, []string{"edit", "delete", "list"}, actionNames(product.Show))
	assert.Equal(t, []string{"delete", "list"}, actionNames(product.Edit))
	assert.Equal(t, []string{"list"}, actionNames(product.New))
	assert.Equal(t, "method", product.List.Actions[0].Type)

	assert.Equal(t, DefaultMaxResults, product.List.MaxResults)
	assert.Equal(t, DefaultMaxResults, product.Search.MaxResults)
	assert.Equal(t, DefaultShowMaxResults, out.Show.MaxResults)
	assert.Equal(t, "@admin/list", product.Templates["list"])

	assert.Equal(t, []string{"Category", "Product"}, out.EntityOrder)
	assert.Equal(t, config.Homepage{
		Route:  "admin",
		Params: map[string]string{"action": "list", "entity": "Category"},
	}, out.Homepage)
}

func TestNormalizerRemovesDisabledActionsEverywhere(t *testing.T) {
	out, err := NewNormalizer().Process(context.Background(), treeWith(map[string]*config.EntityConfig{
		"Product": {
			Class:           "App.Product",
			DisabledActions: []string{"delete", "new"},
			Show: config.ViewConfig{Actions: []config.ActionConfig{
				{Name: "delete"}, {Name: "export", Type: "route"},
			}},
		},
	}))
	require.NoError(t, err)

	product := out.Entity("Product")
	for _, view := range config.Views {
		names := actionNames(*product.View(view))
		assert.NotContains(t, names, "delete", view)
		assert.NotContains(t, names, "new", view)
	}
	assert.Equal(t, []string{"export"}, actionNames(product.Show))
	assert.Equal(t, "route", product.Show.Actions[0].Type)
}

func TestNormalizerSortDirectionAndTemplates(t *testing.T) {
	in := treeWith(map[string]*config.EntityConfig{
		"Product": {
			Class:     "App.Product",
			List:      config.ViewConfig{Sort: &config.SortConfig{Field: "name", Direction: "asc"}},
			Search:    config.ViewConfig{Sort: &config.SortConfig{Field: "name"}},
			Templates: map[string]string{"edit": "custom/edit"},
		},
	})
	in.Design.Templates = map[string]string{"show": "theme/show"}
	in.Homepage.URL = "https://example.com/"
	in.EntityOrder = []string{"Product"}

	out, err := NewNormalizer().Process(context.Background(), in)
	require.NoError(t, err)

	product := out.Entity("Product")
	assert.Equal(t, "ASC", product.List.Sort.Direction)
	assert.Equal(t, "DESC", product.Search.Sort.Direction)
	assert.Equal(t, "custom/edit", product.Templates["edit"])
	assert.Equal(t, "theme/show", product.Templates["show"])
	assert.Equal(t, "@admin/new", product.Templates["new"])
	assert.Equal(t, config.Homepage{URL: "https://example.com/"}, out.Homepage)
}

func TestNormalizerIdempotent(t *testing.T) {
	in := treeWith(map[string]*config.EntityConfig{
		"Product": {Class: "App.Product", DisabledActions: []string{"show", "edit", "delete"}},
	})

	once, err := NewNormalizer().Process(context.Background(), in)
	require.NoError(t, err)
	twice, err := NewNormalizer().Process(context.Background(), once)
	require.NoError(t, err)
	requireSameTree(t, once, twice)

	// Every default search action is disabled, so the search view stays empty.
	assert.Empty(t, once.Entity("Product").Search.Actions)
}
