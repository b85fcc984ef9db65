package graph

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/observability"
)

// Service maintains the group membership and role assignment graphs on top
// of an authz.Store and answers direct and nested (transitive) queries.
//
// Structural mutations (edge changes, cascading deletes) take the state lock
// exclusively so a reachability check and its commit cannot race another
// mutation past the cycle guard. Closure queries hold the read lock for the
// whole traversal, so they never observe a dangling edge. The same lock is
// shared with the snapshot manager, whose import holds it exclusively.
type Service struct {
	store   authz.Store
	mu      *sync.RWMutex
	cache   *ClosureCache
	metrics *observability.Metrics
}

// NewService creates a graph service. stateLock is the process-wide
// authorization state lock; pass the same lock to the snapshot manager. A
// nil stateLock creates a private one, which is fine when imports are not
// wired. cache and metrics may be nil.
func NewService(store authz.Store, stateLock *sync.RWMutex, cache *ClosureCache, metrics *observability.Metrics) *Service {
	if stateLock == nil {
		stateLock = &sync.RWMutex{}
	}
	return &Service{
		store:   store,
		mu:      stateLock,
		cache:   cache,
		metrics: metrics,
	}
}

// CreateGroup creates a new group with a server-assigned id.
func (s *Service) CreateGroup(ctx context.Context, name, description string) (*authz.Group, error) {
	if name == "" {
		return nil, &authz.ValidationError{Field: "name", Reason: "required"}
	}
	group := &authz.Group{Name: name, Description: description}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// GetGroup returns the group with the given id.
func (s *Service) GetGroup(ctx context.Context, id string) (*authz.Group, error) {
	return s.store.GetGroup(ctx, id)
}

// ListGroups returns all groups, ordered by name for stable listings.
func (s *Service) ListGroups(ctx context.Context) ([]*authz.Group, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// UpdateGroupDetails updates a group's mutable name and description.
func (s *Service) UpdateGroupDetails(ctx context.Context, id, name, description string) (*authz.Group, error) {
	if name == "" {
		return nil, &authz.ValidationError{Field: "name", Reason: "required"}
	}
	return s.store.UpdateGroup(ctx, id, func(g *authz.Group) error {
		g.Name = name
		g.Description = description
		return nil
	})
}

// DeleteGroup deletes a group and cascades: every other group holding the
// deleted group as a nested member is cleaned in the same logical operation,
// so no dangling GroupRef persists.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetGroup(ctx, id); err != nil {
		return err
	}
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if group.ID == id || !group.HasNested(id) {
			continue
		}
		if _, err := s.store.UpdateGroup(ctx, group.ID, func(g *authz.Group) error {
			g.Nested = removeString(g.Nested, id)
			return nil
		}); err != nil {
			return err
		}
	}
	if err := s.store.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// AddMembers adds user and nested-group members to a group. Every GroupRef
// is checked for reachability back to the target group first; a cycle fails
// the whole operation with no partial edges committed. Duplicate refs are
// idempotent no-ops.
func (s *Service) AddMembers(ctx context.Context, groupID string, refs []authz.MemberRef) error {
	for _, ref := range refs {
		if err := validateRef(ref); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return err
	}
	adjacency := nestedAdjacency(groups)
	if _, ok := adjacency[groupID]; !ok {
		return &authz.NotFoundError{Kind: "group", ID: groupID}
	}

	for _, ref := range refs {
		if ref.Kind != authz.MemberGroup {
			continue
		}
		if _, ok := adjacency[ref.ID]; !ok {
			return &authz.NotFoundError{Kind: "group", ID: ref.ID}
		}
		// The edge groupID -> ref.ID closes a cycle iff groupID is already
		// reachable from the candidate through existing nesting edges.
		if ref.ID == groupID || reachable(adjacency, ref.ID, groupID) {
			return &authz.CycleError{GroupID: groupID, MemberID: ref.ID}
		}
		// Stage the edge so later refs in the same batch see it.
		adjacency[groupID] = append(adjacency[groupID], ref.ID)
	}

	if _, err := s.store.UpdateGroup(ctx, groupID, func(g *authz.Group) error {
		for _, ref := range refs {
			switch ref.Kind {
			case authz.MemberUser:
				if !g.HasMember(ref.ID) {
					g.Members = append(g.Members, ref.ID)
				}
			case authz.MemberGroup:
				if !g.HasNested(ref.ID) {
					g.Nested = append(g.Nested, ref.ID)
				}
			}
		}
		return nil
	}); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// RemoveMembers removes the given member references. Removing an absent edge
// is a no-op, not an error.
func (s *Service) RemoveMembers(ctx context.Context, groupID string, refs []authz.MemberRef) error {
	for _, ref := range refs {
		if err := validateRef(ref); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.UpdateGroup(ctx, groupID, func(g *authz.Group) error {
		for _, ref := range refs {
			switch ref.Kind {
			case authz.MemberUser:
				g.Members = removeString(g.Members, ref.ID)
			case authz.MemberGroup:
				g.Nested = removeString(g.Nested, ref.ID)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// DirectMembers returns the group's direct members as tagged references.
func (s *Service) DirectMembers(ctx context.Context, groupID string) ([]authz.MemberRef, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return group.MemberRefs(), nil
}

// NestedMembers returns every user identity reachable from the group at any
// nesting depth, de-duplicated, the group's own direct users included.
// Intermediate groups are not part of the result.
func (s *Service) NestedMembers(ctx context.Context, groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if users, ok := s.cache.Get(ctx, closureMembers, groupID); ok {
		return users, nil
	}
	start := time.Now()
	defer func() { s.metrics.RecordClosureComputation(closureMembers, start) }()

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	byID := groupsByID(groups)
	if _, ok := byID[groupID]; !ok {
		return nil, &authz.NotFoundError{Kind: "group", ID: groupID}
	}

	users := make(map[string]struct{})
	// Visited set guards termination even if a cycle slipped past the
	// structural guard via store corruption.
	visited := make(map[string]struct{})
	queue := []string{groupID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		group, ok := byID[current]
		if !ok {
			continue
		}
		for _, userID := range group.Members {
			users[userID] = struct{}{}
		}
		queue = append(queue, group.Nested...)
	}

	result := sortedKeys(users)
	s.cache.Set(ctx, closureMembers, groupID, result)
	return result, nil
}

func validateRef(ref authz.MemberRef) error {
	if ref.ID == "" {
		return &authz.ValidationError{Field: "member", Reason: "id is required"}
	}
	if ref.Kind != authz.MemberUser && ref.Kind != authz.MemberGroup {
		return &authz.ValidationError{Field: "member", Reason: "unknown kind: " + string(ref.Kind)}
	}
	return nil
}

// nestedAdjacency builds the nesting edge index keyed by group id.
func nestedAdjacency(groups []*authz.Group) map[string][]string {
	adjacency := make(map[string][]string, len(groups))
	for _, group := range groups {
		adjacency[group.ID] = append([]string(nil), group.Nested...)
	}
	return adjacency
}

// reachable reports whether to is reachable from from over nesting edges.
func reachable(adjacency map[string][]string, from, to string) bool {
	visited := make(map[string]struct{})
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			return true
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		queue = append(queue, adjacency[current]...)
	}
	return false
}

func groupsByID(groups []*authz.Group) map[string]*authz.Group {
	byID := make(map[string]*authz.Group, len(groups))
	for _, group := range groups {
		byID[group.ID] = group
	}
	return byID
}

func removeString(values []string, drop string) []string {
	out := values[:0]
	for _, v := range values {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
