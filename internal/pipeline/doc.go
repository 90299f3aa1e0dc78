// Package pipeline resolves the admin configuration.
//
// A Manager holds the raw tree and an ordered list of passes. On first
// access it computes a fingerprint of the raw tree and the ordered pass
// names, consults the Cache, and on a miss runs every pass in order,
// feeding each pass the previous pass's output:
//
//	raw tree -> pass(priority 40) -> pass(30) -> ... -> resolved tree
//
// Ordering: higher priority first; equal priorities keep registration
// order.
//
// The resolved tree is shared read-only. Resolution happens at most once
// per Manager even under concurrent first access. Registering a pass after
// resolution fails with ErrPipelineSealed.
//
// Cache failures never fail resolution: a read error is logged and treated
// as a miss, a write error is logged and the freshly resolved tree is
// returned.
package pipeline
