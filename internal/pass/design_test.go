package pass

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/render"
)

type stubRenderer struct {
	vars map[string]any
	out  string
	err  error
}

func (s *stubRenderer) Render(_ string, vars map[string]any) (string, error) {
	s.vars = vars
	return s.out, s.err
}

func TestIsRTL(t *testing.T) {
	tests := []struct {
		locale string
		rtl    bool
	}{
		{"ar_SA", true},
		{"ar", true},
		{"fa-IR", true},
		{"he", true},
		{"en_US", false},
		{"fr_FR", false},
		{"", false},
		{"e", false},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.rtl, IsRTL(tt.locale))
		})
	}
}

func TestDesignRTLDefault(t *testing.T) {
	renderer := render.NewTemplates(nil)

	out, err := NewDesign(renderer, "ar_SA", false).Process(context.Background(), &config.Tree{})
	require.NoError(t, err)
	require.NotNil(t, out.Design.RTL)
	assert.True(t, *out.Design.RTL)

	out, err = NewDesign(renderer, "en_US", false).Process(context.Background(), &config.Tree{})
	require.NoError(t, err)
	require.NotNil(t, out.Design.RTL)
	assert.False(t, *out.Design.RTL)
}

func TestDesignExplicitRTLWins(t *testing.T) {
	in := &config.Tree{}
	in.Design.RTL = boolPtr(true)

	out, err := NewDesign(render.NewTemplates(nil), "fr_FR", false).Process(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, *out.Design.RTL)
}

func TestDesignCustomCSS(t *testing.T) {
	stub := &stubRenderer{out: ".a {\n    color: red;\n}\n\n.b  { x: y; }"}
	in := &config.Tree{}
	in.Design.BrandColor = "#ff0000"
	in.Design.ColorScheme = "light"

	out, err := NewDesign(stub, "en", true).Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"brand_color": "#ff0000", "color_scheme": "light", "debug": true}, stub.vars)
	assert.Equal(t, ".a { color: red; } .b { x: y; }", out.Internal.CustomCSS)
}

func TestDesignCustomCSSFromTheme(t *testing.T) {
	in := &config.Tree{}
	in.Design.BrandColor = "#abcdef"

	out, err := NewDesign(render.NewTemplates(nil), "en", false).Process(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, out.Internal.CustomCSS, "--color-primary: #abcdef;")
	assert.NotContains(t, out.Internal.CustomCSS, "\n")
	assert.False(t, strings.Contains(out.Internal.CustomCSS, "  "))
}

func TestDesignRenderFailure(t *testing.T) {
	stub := &stubRenderer{err: errors.New("boom")}
	_, err := NewDesign(stub, "en", false).Process(context.Background(), &config.Tree{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom css")
}

func TestDesignIdempotent(t *testing.T) {
	p := NewDesign(render.NewTemplates(nil), "he_IL", false)
	once, err := p.Process(context.Background(), &config.Tree{})
	require.NoError(t, err)
	twice, err := p.Process(context.Background(), once)
	require.NoError(t, err)
	requireSameTree(t, once, twice)
}
