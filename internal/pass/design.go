package pass

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/text/language"

	"github.com/roach88/adminpanel/internal/config"
	"github.com/roach88/adminpanel/internal/render"
)

// rtlLanguages are the base languages written right to left: Arabic,
// Persian and Hebrew.
var rtlLanguages = []string{"ar", "fa", "he"}

// Design derives presentation options: the rtl flag from the locale and
// the minified theme stylesheet.
type Design struct {
	renderer render.Renderer
	locale   string
	debug    bool
}

// NewDesign creates the design pass for a process locale and debug flag.
func NewDesign(renderer render.Renderer, locale string, debug bool) *Design {
	return &Design{renderer: renderer, locale: locale, debug: debug}
}

// Name implements pipeline.Pass.
func (*Design) Name() string { return "design" }

// CacheKey implements pipeline.KeyedPass: the locale and debug flag shape
// the output.
func (d *Design) CacheKey() string {
	return fmt.Sprintf("locale=%s,debug=%t", d.locale, d.debug)
}

// Process implements pipeline.Pass.
func (d *Design) Process(_ context.Context, in *config.Tree) (*config.Tree, error) {
	tree, err := in.Clone()
	if err != nil {
		return nil, err
	}

	if tree.Design.RTL == nil {
		rtl := IsRTL(d.locale)
		tree.Design.RTL = &rtl
	}

	css, err := d.renderer.Render(render.ThemeTemplate, map[string]any{
		"brand_color":  tree.Design.BrandColor,
		"color_scheme": tree.Design.ColorScheme,
		"debug":        d.debug,
	})
	if err != nil {
		return nil, fmt.Errorf("custom css: %w", err)
	}
	tree.Internal.CustomCSS = render.Minify(css)
	return tree, nil
}

// IsRTL reports whether locale's base language is written right to left.
// Locales the BCP 47 parser rejects fall back to their first two characters.
func IsRTL(locale string) bool {
	base := ""
	if tag, err := language.Parse(locale); err == nil {
		b, _ := tag.Base()
		base = b.String()
	} else if len(locale) >= 2 {
		base = locale[:2]
	}
	return slices.Contains(rtlLanguages, base)
}
