// Package config defines the admin configuration tree.
//
// The same types describe the raw tree authored by users and the resolved
// tree produced by the pipeline. Resolution only fills in fields; it never
// changes the shape. JSON tags are the canonical names: they drive
// serialization, the cache, the fingerprint and the dotted-path accessor.
//
// Sections:
//   - design: brand color, color scheme, rtl, menu, template overrides
//   - homepage: route and params, or a url
//   - show: global options such as max_results for autocomplete
//   - schema: declared data classes and their mapping
//   - entities: per-entity configuration keyed by entity name
//   - entity_order: declaration order of entities
//   - _internal: derived values such as custom_css
//
// Invariants of a resolved tree:
//   - every entity is introspected and has a primary key field name
//     (NoIdentifier only for DTO entities without an id)
//   - multi-valued associations are never sortable
//   - actions listed in disabled_actions appear in no view
package config
