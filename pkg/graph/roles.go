package graph

import (
	"context"
	"sort"
	"time"

	"github.com/wardenhq/warden/pkg/authz"
)

// CreateRole creates a new role with a server-assigned id.
func (s *Service) CreateRole(ctx context.Context, role *authz.Role) (*authz.Role, error) {
	if role.Name == "" {
		return nil, &authz.ValidationError{Field: "name", Reason: "required"}
	}
	created := role.Clone()
	created.ID = ""
	if err := s.store.CreateRole(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// GetRole returns the role with the given id.
func (s *Service) GetRole(ctx context.Context, id string) (*authz.Role, error) {
	return s.store.GetRole(ctx, id)
}

// ListRoles returns all roles, ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]*authz.Role, error) {
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// UpdateRole replaces the role's mutable fields with the desired state.
// The id is immutable.
func (s *Service) UpdateRole(ctx context.Context, id string, desired *authz.Role) (*authz.Role, error) {
	if desired.Name == "" {
		return nil, &authz.ValidationError{Field: "name", Reason: "required"}
	}
	return s.store.UpdateRole(ctx, id, func(r *authz.Role) error {
		r.Name = desired.Name
		r.Description = desired.Description
		r.ApplicationType = desired.ApplicationType
		r.ApplicationID = desired.ApplicationID
		r.Permissions = append([]authz.Permission(nil), desired.Permissions...)
		return nil
	})
}

// DeleteRole deletes a role and cascades: the role is scrubbed from every
// group's role set atomically with the delete, so neither direct nor nested
// role queries can surface it afterwards.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetRole(ctx, id); err != nil {
		return err
	}
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if !group.HasRole(id) {
			continue
		}
		if _, err := s.store.UpdateGroup(ctx, group.ID, func(g *authz.Group) error {
			g.Roles = removeString(g.Roles, id)
			return nil
		}); err != nil {
			return err
		}
	}
	if err := s.store.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// AddRoles assigns roles to a group. Every role id must exist; duplicates
// are idempotent no-ops.
func (s *Service) AddRoles(ctx context.Context, groupID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		if roleID == "" {
			return &authz.ValidationError{Field: "roles", Reason: "role id is required"}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, roleID := range roleIDs {
		if _, err := s.store.GetRole(ctx, roleID); err != nil {
			return err
		}
	}
	if _, err := s.store.UpdateGroup(ctx, groupID, func(g *authz.Group) error {
		for _, roleID := range roleIDs {
			if !g.HasRole(roleID) {
				g.Roles = append(g.Roles, roleID)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// RemoveRoles unassigns roles from a group. Removing an absent assignment is
// a no-op, not an error.
func (s *Service) RemoveRoles(ctx context.Context, groupID string, roleIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.UpdateGroup(ctx, groupID, func(g *authz.Group) error {
		for _, roleID := range roleIDs {
			g.Roles = removeString(g.Roles, roleID)
		}
		return nil
	}); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// DirectRoles returns the roles directly assigned to the group.
func (s *Service) DirectRoles(ctx context.Context, groupID string) ([]*authz.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.resolveRoles(ctx, group.Roles)
}

// NestedRoles returns the group's effective roles: its direct roles plus the
// roles of every ancestor, i.e. every group that contains this group at any
// nesting depth. Role exposure flows downward from containing groups to the
// groups nested under them.
func (s *Service) NestedRoles(ctx context.Context, groupID string) ([]*authz.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ids, ok := s.cache.Get(ctx, closureRoles, groupID); ok {
		return s.resolveRoles(ctx, ids)
	}
	start := time.Now()
	defer func() { s.metrics.RecordClosureComputation(closureRoles, start) }()

	ids, err := s.nestedRoleIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, closureRoles, groupID, ids)
	return s.resolveRoles(ctx, ids)
}

// NestedPermissions returns the de-duplicated union of all permissions
// granted by the group's effective roles.
func (s *Service) NestedPermissions(ctx context.Context, groupID string) ([]authz.Permission, error) {
	roles, err := s.NestedRoles(ctx, groupID)
	if err != nil {
		return nil, err
	}

	type permKey struct {
		name, appType, appID string
	}
	seen := make(map[permKey]struct{})
	var permissions []authz.Permission
	for _, role := range roles {
		for _, perm := range role.Permissions {
			key := permKey{perm.Name, perm.ApplicationType, perm.ApplicationID}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			permissions = append(permissions, perm)
		}
	}
	sort.Slice(permissions, func(i, j int) bool { return permissions[i].Name < permissions[j].Name })
	return permissions, nil
}

// nestedRoleIDs walks ancestor edges (reverse nesting) and unions role ids.
// Caller holds at least the read lock.
func (s *Service) nestedRoleIDs(ctx context.Context, groupID string) ([]string, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	byID := groupsByID(groups)
	if _, ok := byID[groupID]; !ok {
		return nil, &authz.NotFoundError{Kind: "group", ID: groupID}
	}

	// parents[child] lists the groups that directly contain child.
	parents := make(map[string][]string, len(groups))
	for _, group := range groups {
		for _, child := range group.Nested {
			parents[child] = append(parents[child], group.ID)
		}
	}

	roleIDs := make(map[string]struct{})
	visited := make(map[string]struct{})
	queue := []string{groupID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		if group, ok := byID[current]; ok {
			for _, roleID := range group.Roles {
				roleIDs[roleID] = struct{}{}
			}
		}
		queue = append(queue, parents[current]...)
	}
	return sortedKeys(roleIDs), nil
}

// resolveRoles maps role ids to role entities, skipping ids whose role
// vanished mid-read; cascade deletion makes that window barely observable.
func (s *Service) resolveRoles(ctx context.Context, ids []string) ([]*authz.Role, error) {
	roles := make([]*authz.Role, 0, len(ids))
	for _, id := range ids {
		role, err := s.store.GetRole(ctx, id)
		if err != nil {
			if authz.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}
