package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/adminpanel/internal/apperr"
)

// Generic returns the tree as nested map[string]any / []any values keyed
// by JSON tag names. Numbers decode as json.Number.
func (t *Tree) Generic() (map[string]any, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("generic tree: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("generic tree: %w", err)
	}
	return out, nil
}

// Lookup walks a dot-separated path such as "entities.Product.list.fields.0".
// Segments addressing lists must be decimal indices. An empty path returns
// the whole tree. A missing segment yields an apperr NotFound error.
func (t *Tree) Lookup(path string) (any, error) {
	root, err := t.Generic()
	if err != nil {
		return nil, err
	}
	return Walk(root, path)
}

// Walk resolves path against a generic value.
func Walk(root any, path string) (any, error) {
	if path == "" {
		return root, nil
	}

	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, apperr.NotFound(path, seg)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, apperr.NotFound(path, seg)
			}
			cur = node[idx]
		default:
			return nil, apperr.NotFound(path, seg)
		}
	}
	return cur, nil
}
