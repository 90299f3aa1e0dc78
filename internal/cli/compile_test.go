package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adminpanel/internal/cache"
	"github.com/roach88/adminpanel/internal/config"
)

func TestCompileText(t *testing.T) {
	out, err := execute(t, "compile", writeConfig(t, shopConfig))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Resolved 2 entities")
	assert.Contains(t, out, "Product: App.Product (pk id, 3 properties)")
	assert.Contains(t, out, "Tag: App.Tag (pk id, 2 properties)")
	assert.Contains(t, out, "Fingerprint: ")
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(t, "compile", "--format", "json", "--locale", "he_IL", writeConfig(t, shopConfig))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cue", resp.Data.Format)
	assert.Equal(t, []string{"normalize", "metadata", "fields", "design"}, resp.Data.Passes)
	assert.True(t, resp.Data.RTL)
	assert.Len(t, resp.Data.Fingerprint, 64)

	require.Len(t, resp.Data.Entities, 2)
	assert.Equal(t, "Product", resp.Data.Entities[0].Name)
	assert.Equal(t, []string{"delete"}, resp.Data.Entities[1].Disabled)
	assert.Equal(t, "Product", resp.Data.Homepage.Params["entity"])
}

func TestCompileWritesResolvedTree(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "resolved.json")
	out, err := execute(t, "compile", "-o", outFile, writeConfig(t, shopConfig))
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote resolved configuration to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	tree, err := config.Decode(data)
	require.NoError(t, err)

	product := tree.Entity("Product")
	require.NotNil(t, product)
	assert.True(t, product.Introspected)
	assert.Equal(t, config.TypeAssociation, product.Properties["tags"].Type)
	assert.False(t, product.Properties["tags"].Sortable)
	assert.NotEmpty(t, tree.Internal.CustomCSS)
}

func TestCompileStoresInSQLiteCache(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	dir := writeConfig(t, shopConfig)

	_, err := execute(t, "compile", "--cache-db", dbPath, dir)
	require.NoError(t, err)
	_, err = execute(t, "compile", "--cache-db", dbPath, dir)
	require.NoError(t, err)

	db, err := cache.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer db.Close()
	n, err := db.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCompileMissingClass(t *testing.T) {
	out, err := execute(t, "compile", writeConfig(t, "package admin\n\nentities: Ghost: class: \"App.Ghost\"\n"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "INVALID_ENTITY_CLASS")
}

func TestCompileMissingDirectory(t *testing.T) {
	out, err := execute(t, "compile", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
}

func TestCompileCacheSeparatesLocales(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	dir := writeConfig(t, shopConfig)

	rtl := func(locale string) bool {
		out, err := execute(t, "compile", "--format", "json", "--cache-db", dbPath, "--locale", locale, dir)
		require.NoError(t, err)
		var resp struct {
			Data CompilationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.RTL
	}

	assert.True(t, rtl("ar_SA"))
	assert.False(t, rtl("en_US"))
	assert.True(t, rtl("ar_SA"))

	out, err := execute(t, "cache", "stats", "--cache-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, ": 2 cached configuration(s)")
}
