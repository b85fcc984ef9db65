// Package graph implements the group authorization graph engine: membership
// edges, role assignment edges, cycle prevention, and transitive closures.
//
// # Graph model
//
// Groups are nodes; a group's Nested set holds directed "contains" edges to
// other groups and its Members set holds leaf edges to external user
// identities. Role assignments are edges from groups to roles. All edges are
// adjacency sets keyed by opaque id, never object references, so deletion
// and cycle detection stay local set operations.
//
// # Closure semantics
//
// NestedMembers(g) collects every user identity reachable from g through
// nesting edges, at any depth, de-duplicated. NestedRoles(g) goes the other
// direction: it unions the roles of g and of every ancestor of g, because a
// group nested under a parent inherits the parent's role exposure.
//
// # Cycle prevention
//
// AddMembers rejects any batch whose GroupRef edges would close a nesting
// cycle, before committing anything. Traversals additionally carry a visited
// set, so a cycle introduced behind the engine's back (store corruption)
// cannot hang a query.
//
// # Concurrency
//
// Structural mutations serialize on the shared state RWMutex; closure reads
// hold it shared for the full traversal. Closure results are memoized in an
// optional Redis-backed ClosureCache with generation-based invalidation.
//
// # Related Packages
//
//   - pkg/authz: entity types and error taxonomy
//   - pkg/snapshot: takes the same state lock exclusively during import
package graph
