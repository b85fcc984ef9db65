package authz

import "context"

// Store is the transactional keyed collection of authorization entities the
// engine is built on. All mutations are linearizable per entity id: either
// the implementation locks per entity, or it detects optimistic-version
// conflicts and retries up to a small bound before surfacing ConflictError.
//
// Implementations assign ids on create and never reuse an id after deletion.
// Update and delete on a missing id fail with NotFoundError.
type Store interface {
	CreateGroup(ctx context.Context, group *Group) error
	GetGroup(ctx context.Context, id string) (*Group, error)
	// UpdateGroup applies mutate to the current state of the group as a
	// single atomic read-modify-write. The callback may be invoked more than
	// once when the store retries an optimistic conflict.
	UpdateGroup(ctx context.Context, id string, mutate func(*Group) error) (*Group, error)
	DeleteGroup(ctx context.Context, id string) error
	ListGroups(ctx context.Context) ([]*Group, error)

	CreateRole(ctx context.Context, role *Role) error
	GetRole(ctx context.Context, id string) (*Role, error)
	UpdateRole(ctx context.Context, id string, mutate func(*Role) error) (*Role, error)
	DeleteRole(ctx context.Context, id string) error
	ListRoles(ctx context.Context) ([]*Role, error)

	// ReplaceAll atomically swaps the entire stored state for the given
	// entities. The new state is staged fully before the swap; a failure
	// leaves the previous state untouched.
	ReplaceAll(ctx context.Context, groups []*Group, roles []*Role) error

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error
}
