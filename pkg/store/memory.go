package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/pkg/authz"
)

// MemoryStore is an in-memory authz.Store. Entities are kept as deep copies
// behind a single RWMutex, so every mutation is trivially linearizable and
// ReplaceAll is an atomic map swap. It backs tests and single-node
// deployments that rely on snapshot export for durability.
type MemoryStore struct {
	mu     sync.RWMutex
	groups map[string]*authz.Group
	roles  map[string]*authz.Role
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups: make(map[string]*authz.Group),
		roles:  make(map[string]*authz.Role),
	}
}

// CreateGroup stores a new group, assigning a fresh id.
func (s *MemoryStore) CreateGroup(_ context.Context, group *authz.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if _, exists := s.groups[group.ID]; exists {
		return &authz.ValidationError{Field: "id", Reason: "group id already exists: " + group.ID}
	}
	group.Version = 1
	s.groups[group.ID] = group.Clone()
	return nil
}

// GetGroup returns a copy of the group with the given id.
func (s *MemoryStore) GetGroup(_ context.Context, id string) (*authz.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, &authz.NotFoundError{Kind: "group", ID: id}
	}
	return group.Clone(), nil
}

// UpdateGroup applies mutate to the group as one atomic read-modify-write.
func (s *MemoryStore) UpdateGroup(_ context.Context, id string, mutate func(*authz.Group) error) (*authz.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.groups[id]
	if !ok {
		return nil, &authz.NotFoundError{Kind: "group", ID: id}
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = id // ids are immutable
	next.Version = current.Version + 1
	s.groups[id] = next
	return next.Clone(), nil
}

// DeleteGroup removes the group with the given id.
func (s *MemoryStore) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return &authz.NotFoundError{Kind: "group", ID: id}
	}
	delete(s.groups, id)
	return nil
}

// ListGroups returns copies of all stored groups.
func (s *MemoryStore) ListGroups(_ context.Context) ([]*authz.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*authz.Group, 0, len(s.groups))
	for _, group := range s.groups {
		groups = append(groups, group.Clone())
	}
	return groups, nil
}

// CreateRole stores a new role, assigning a fresh id.
func (s *MemoryStore) CreateRole(_ context.Context, role *authz.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if _, exists := s.roles[role.ID]; exists {
		return &authz.ValidationError{Field: "id", Reason: "role id already exists: " + role.ID}
	}
	role.Version = 1
	s.roles[role.ID] = role.Clone()
	return nil
}

// GetRole returns a copy of the role with the given id.
func (s *MemoryStore) GetRole(_ context.Context, id string) (*authz.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.roles[id]
	if !ok {
		return nil, &authz.NotFoundError{Kind: "role", ID: id}
	}
	return role.Clone(), nil
}

// UpdateRole applies mutate to the role as one atomic read-modify-write.
func (s *MemoryStore) UpdateRole(_ context.Context, id string, mutate func(*authz.Role) error) (*authz.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.roles[id]
	if !ok {
		return nil, &authz.NotFoundError{Kind: "role", ID: id}
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = id
	next.Version = current.Version + 1
	s.roles[id] = next
	return next.Clone(), nil
}

// DeleteRole removes the role with the given id.
func (s *MemoryStore) DeleteRole(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; !ok {
		return &authz.NotFoundError{Kind: "role", ID: id}
	}
	delete(s.roles, id)
	return nil
}

// ListRoles returns copies of all stored roles.
func (s *MemoryStore) ListRoles(_ context.Context) ([]*authz.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]*authz.Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, role.Clone())
	}
	return roles, nil
}

// ReplaceAll swaps the entire stored state for the given entities. The new
// maps are staged fully before the swap, so a caller observing the store
// never sees a partially replaced state.
func (s *MemoryStore) ReplaceAll(_ context.Context, groups []*authz.Group, roles []*authz.Role) error {
	nextGroups := make(map[string]*authz.Group, len(groups))
	for _, group := range groups {
		g := group.Clone()
		if g.Version == 0 {
			g.Version = 1
		}
		nextGroups[g.ID] = g
	}
	nextRoles := make(map[string]*authz.Role, len(roles))
	for _, role := range roles {
		r := role.Clone()
		if r.Version == 0 {
			r.Version = 1
		}
		nextRoles[r.ID] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = nextGroups
	s.roles = nextRoles
	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}
