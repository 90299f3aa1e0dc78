package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const shopConfig = `package admin

design: {
	brand_color: "#336699"
	menu: [{entity: "Product", label: "Catalog"}]
}

schema: {
	"App.Product": mapping: {
		id: ["id"]
		fields: {
			id: type:   "integer"
			name: type: "string"
		}
		associations: tags: {kind: "many_to_many", target_entity: "App.Tag"}
	}
	"App.Tag": mapping: {
		id: ["id"]
		fields: {
			id: type:    "integer"
			label: type: "string"
		}
	}
}

entities: {
	Product: class: "App.Product"
	Tag: {
		class: "App.Tag"
		disabled_actions: ["delete"]
	}
}
`

// writeConfig writes content as admin.cue in a fresh directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "admin.cue"), []byte(content), 0o644))
	return dir
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	silence(cmd)
	err := cmd.Execute()
	return out.String(), err
}

func silence(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
}
