// Package authz defines the core authorization model shared by every Warden
// component: groups, roles, permissions, identity-provider mappings, the
// error taxonomy, and the Store contract the engine is built on.
//
// # Model
//
// A Group holds three edge sets, all keyed by opaque id:
//   - Members: external user identities (no local entity exists for a user)
//   - Nested: other groups contained by this group
//   - Roles: roles assigned to this group
//
// Nesting edges must stay acyclic; pkg/graph enforces that invariant and
// computes transitive closures over them. Mappings tie a group to external
// identity-provider connections and are owned exclusively by their group.
//
// Permissions are inline descriptors on roles; they have no independent
// lifecycle.
//
// # Errors
//
// Each failure class has a typed error plus an Is helper:
//
//	authz.IsNotFound(err)        // entity id absent
//	authz.IsCycle(err)           // membership edge would create a cycle
//	authz.IsConflict(err)        // optimistic retry bound exhausted
//	authz.IsValidation(err)      // malformed input
//	authz.IsInvalidSnapshot(err) // import rejected, store unchanged
//
// Every failed mutation leaves the store in the state it had immediately
// before the call.
//
// # Related Packages
//
//   - pkg/store: Store implementations (memory, postgres, sqlite)
//   - pkg/graph: membership and role-assignment graph services
//   - pkg/snapshot: whole-state export/import
package authz
