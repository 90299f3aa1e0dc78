// Package pass implements the configuration passes that turn a raw admin
// tree into a resolved one.
//
// Every pass clones its input and returns a new tree, so a failing pass
// never leaves a partially modified tree behind. Every pass is
// idempotent: running it over its own output changes nothing.
//
// Passes and their default priorities (higher runs first):
//   - Normalizer (40): names, default actions per view, disabled actions
//     removed, max_results, sort direction, templates, homepage
//   - Metadata (30): primary key and property metadata from the schema
//   - Fields (20): view fields completed from properties
//   - Design (10): rtl flag and the minified theme stylesheet
package pass

import "sort"

// Default priorities.
const (
	PriorityNormalize = 40
	PriorityMetadata  = 30
	PriorityFields    = 20
	PriorityDesign    = 10
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
