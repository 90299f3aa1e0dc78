package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adminpanel/internal/config"
)

func TestLoadCUEDirectory(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "cue"))
	require.NoError(t, err)

	assert.Equal(t, FormatCUE, res.Format)
	assert.Len(t, res.Files, 2)
	assert.Equal(t, []string{"Product", "Category"}, res.Tree.EntityOrder)

	product := res.Tree.Entity("Product")
	require.NotNil(t, product)
	assert.Equal(t, "App.Product", product.Class)
	require.NotNil(t, product.List.Sort)
	assert.Equal(t, "name", product.List.Sort.Field)
	assert.Equal(t, []config.FieldConfig{{Property: "name"}}, product.Search.Fields)

	assert.Equal(t, "#205081", res.Tree.Design.BrandColor)
	assert.Equal(t, 12, res.Tree.Show.MaxResults)
	assert.Equal(t, config.AssociationKind("one_to_many"),
		res.Tree.Schema["App.Category"].Mapping.Associations["products"].Kind)
	assert.Empty(t, config.Validate(res.Tree))
}

func TestLoadYAMLDirectory(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "yaml"))
	require.NoError(t, err)

	assert.Equal(t, FormatYAML, res.Format)
	assert.Equal(t, []string{filepath.Join("testdata", "yaml", "admin.yaml")}, res.Files)
	assert.Equal(t, []string{"Product", "Category"}, res.Tree.EntityOrder)
	assert.Empty(t, config.Validate(res.Tree))
}

func TestCUEAndYAMLProduceTheSameTree(t *testing.T) {
	fromCUE, err := Load(filepath.Join("testdata", "cue"))
	require.NoError(t, err)
	fromYAML, err := Load(filepath.Join("testdata", "yaml"))
	require.NoError(t, err)

	assert.Equal(t, fromCUE.Tree, fromYAML.Tree)
}

func TestLoadSingleFiles(t *testing.T) {
	dir := t.TempDir()
	cuePath := filepath.Join(dir, "one.cue")
	require.NoError(t, os.WriteFile(cuePath, []byte(`
entities: {
	Zebra: class: "App.Zebra"
	Ant: class:   "App.Ant"
}
`), 0o644))

	res, err := Load(cuePath)
	require.NoError(t, err)
	assert.Equal(t, FormatCUE, res.Format)
	assert.Equal(t, []string{"Zebra", "Ant"}, res.Tree.EntityOrder)

	ymlPath := filepath.Join(dir, "other.yml")
	require.NoError(t, os.WriteFile(ymlPath, []byte("entities:\n  Zebra: {class: App.Zebra}\n  Ant: {class: App.Ant}\n"), 0o644))

	res, err = Load(ymlPath)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, res.Format)
	assert.Equal(t, []string{"Zebra", "Ant"}, res.Tree.EntityOrder)
}

func TestExplicitEntityOrderIsKept(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "admin.yaml"), []byte(`
entity_order: [Ant, Zebra]
entities:
  Zebra: {class: App.Zebra}
  Ant: {class: App.Ant}
`), 0o644))

	res, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ant", "Zebra"}, res.Tree.EntityOrder)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		t.Helper()
		sub := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(sub, 0o755))
		path := filepath.Join(sub, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing path", filepath.Join(dir, "nope"), ErrCodeNotFound},
		{"empty directory", t.TempDir(), ErrCodeNoFiles},
		{"unsupported extension", write("admin.toml", "entities = {}"), ErrCodeNoFiles},
		{"cue syntax error", write("broken.cue", "entities: {\n\tProduct: class: \n"), ErrCodeBuildFailed},
		{"cue not concrete", write("open.cue", "entities: Product: class: string\n"), ErrCodeBuildFailed},
		{"yaml syntax error", write("bad.yaml", "entities:\n  - [unclosed\n"), ErrCodeLoadFailed},
		{"yaml scalar root", write("scalar.yaml", "just a string\n"), ErrCodeDecode},
		{"yaml wrong shape", write("shape.yaml", "entities: [Product]\n"), ErrCodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le), "want *LoadError, got %T", err)
			assert.Equal(t, tt.code, le.Code, le.Error())
		})
	}
}

func TestCUEErrorCarriesPosition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "admin.cue"), []byte(`package admin

entities: Product: class: "App.Product"
entities: Product: class: "App.Other"
`), 0o644))

	_, err := Load(dir)
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	require.True(t, le.Pos.IsValid())
	assert.Contains(t, le.Pos.Filename(), "admin.cue")
	assert.Contains(t, le.Error(), "admin.cue:")
}
