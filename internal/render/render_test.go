package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeRendersBrandColor(t *testing.T) {
	r := NewTemplates(nil)

	css, err := r.Render(ThemeTemplate, map[string]any{
		"brand_color":  "#ff0000",
		"color_scheme": "dark",
		"debug":        false,
	})
	require.NoError(t, err)
	assert.Contains(t, css, "--color-primary: #ff0000;")
	assert.Contains(t, css, "#222d32")
	assert.NotContains(t, css, "admin-debug-banner")
}

func TestThemeLightSchemeAndDebug(t *testing.T) {
	r := NewTemplates(nil)

	css, err := r.Render(ThemeTemplate, map[string]any{
		"color_scheme": "light",
		"debug":        true,
	})
	require.NoError(t, err)
	assert.Contains(t, css, "--color-primary: #205081;", "default brand color")
	assert.Contains(t, css, "#f5f5f5")
	assert.Contains(t, css, "admin-debug-banner")
}

func TestExtraTemplatesShadowEmbedded(t *testing.T) {
	r := NewTemplates(map[string]string{ThemeTemplate: "body { color: {{ .brand_color }}; }"})

	css, err := r.Render(ThemeTemplate, map[string]any{"brand_color": "#123456"})
	require.NoError(t, err)
	assert.Equal(t, "body { color: #123456; }", css)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := NewTemplates(nil).Render("missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMinify(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"a {\n  color: red;\n}\n", "a { color: red; } "},
		{"a  b", "a b"},
		{"a\t\tb", "a b"},
		{"a b", "a b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, Minify(tt.in))
	}
}
