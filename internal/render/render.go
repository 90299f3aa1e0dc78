// Package render turns named templates into text.
//
// The design pass renders the theme stylesheet through a Renderer; the
// admin host renders view payloads through the same interface so that a
// different engine can be plugged in without touching either.
package render

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
)

// ThemeTemplate is the name of the stylesheet template.
const ThemeTemplate = "theme.css"

//go:embed templates/*
var templateFS embed.FS

// Renderer renders a named template with variables.
type Renderer interface {
	Render(name string, vars map[string]any) (string, error)
}

// Templates is a Renderer over the embedded template set. Template names
// are file names without the .tmpl suffix.
type Templates struct {
	mu     sync.Mutex
	parsed map[string]*template.Template
	extra  map[string]string
}

// NewTemplates creates a Renderer over the embedded templates. Extra
// sources, keyed by name, shadow embedded templates of the same name.
func NewTemplates(extra map[string]string) *Templates {
	return &Templates{parsed: make(map[string]*template.Template), extra: extra}
}

// Render implements Renderer.
func (t *Templates) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := t.lookup(name)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (t *Templates) lookup(name string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tmpl, ok := t.parsed[name]; ok {
		return tmpl, nil
	}

	src, ok := t.extra[name]
	if !ok {
		data, err := templateFS.ReadFile("templates/" + name + ".tmpl")
		if err != nil {
			return nil, fmt.Errorf("template %q not found", name)
		}
		src = string(data)
	}

	tmpl, err := template.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	t.parsed[name] = tmpl
	return tmpl, nil
}

var (
	newlines   = regexp.MustCompile(`\n`)
	whitespace = regexp.MustCompile(`\s{2,}`)
)

// Minify collapses a stylesheet onto one line: every newline becomes a
// space, then every run of two or more whitespace characters becomes one.
func Minify(css string) string {
	css = newlines.ReplaceAllString(css, " ")
	return whitespace.ReplaceAllString(css, " ")
}
