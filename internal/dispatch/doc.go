// Package dispatch resolves convention-based handler names.
//
// Hosting controllers publish their behaviors through HandlerProvider and
// are collected in a Registry at startup. A request names a pattern such
// as "create<EntityName>Form"; the Dispatcher resolves it in this order:
//
//  1. entity-specific name ("createProductForm")
//  2. generic name ("createForm")
//  3. HandlerNotFound naming the generic handler and the owner type
//
// Action dispatch is guarded first: an action in the entity's
// disabled_actions fails with ForbiddenAction before any handler is
// looked up.
//
// Resolved names in the prePersist, preUpdate and preRemove families emit
// a deprecation warning through slog and an optional observer unless the
// call opts out. Warnings never change control flow.
package dispatch
