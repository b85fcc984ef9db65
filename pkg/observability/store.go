package observability

import (
	"context"
	"time"

	"github.com/wardenhq/warden/pkg/authz"
)

// instrumentedStore decorates an authz.Store with operation counters,
// latency histograms, conflict counters and the group/role inventory gauges.
type instrumentedStore struct {
	inner   authz.Store
	backend string
	metrics *Metrics
}

// InstrumentStore wraps the store with Prometheus instrumentation. The
// backend label names the implementation ("memory", "postgres", "sqlite").
// A nil *Metrics returns the store unwrapped.
func InstrumentStore(inner authz.Store, backend string, metrics *Metrics) authz.Store {
	if metrics == nil {
		return inner
	}
	return &instrumentedStore{inner: inner, backend: backend, metrics: metrics}
}

func (s *instrumentedStore) observe(operation, kind string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperationsTotal.WithLabelValues(operation, s.backend, status).Inc()
	s.metrics.StoreOperationDuration.WithLabelValues(operation, s.backend).Observe(time.Since(start).Seconds())
	if authz.IsConflict(err) {
		s.metrics.StoreConflictsTotal.WithLabelValues(kind).Inc()
	}
}

func (s *instrumentedStore) CreateGroup(ctx context.Context, group *authz.Group) error {
	start := time.Now()
	err := s.inner.CreateGroup(ctx, group)
	s.observe("create_group", "group", start, err)
	if err == nil {
		s.metrics.GroupsTotal.Inc()
	}
	return err
}

func (s *instrumentedStore) GetGroup(ctx context.Context, id string) (*authz.Group, error) {
	start := time.Now()
	group, err := s.inner.GetGroup(ctx, id)
	s.observe("get_group", "group", start, err)
	return group, err
}

func (s *instrumentedStore) UpdateGroup(ctx context.Context, id string, mutate func(*authz.Group) error) (*authz.Group, error) {
	start := time.Now()
	group, err := s.inner.UpdateGroup(ctx, id, mutate)
	s.observe("update_group", "group", start, err)
	return group, err
}

func (s *instrumentedStore) DeleteGroup(ctx context.Context, id string) error {
	start := time.Now()
	err := s.inner.DeleteGroup(ctx, id)
	s.observe("delete_group", "group", start, err)
	if err == nil {
		s.metrics.GroupsTotal.Dec()
	}
	return err
}

func (s *instrumentedStore) ListGroups(ctx context.Context) ([]*authz.Group, error) {
	start := time.Now()
	groups, err := s.inner.ListGroups(ctx)
	s.observe("list_groups", "group", start, err)
	if err == nil {
		s.metrics.GroupsTotal.Set(float64(len(groups)))
	}
	return groups, err
}

func (s *instrumentedStore) CreateRole(ctx context.Context, role *authz.Role) error {
	start := time.Now()
	err := s.inner.CreateRole(ctx, role)
	s.observe("create_role", "role", start, err)
	if err == nil {
		s.metrics.RolesTotal.Inc()
	}
	return err
}

func (s *instrumentedStore) GetRole(ctx context.Context, id string) (*authz.Role, error) {
	start := time.Now()
	role, err := s.inner.GetRole(ctx, id)
	s.observe("get_role", "role", start, err)
	return role, err
}

func (s *instrumentedStore) UpdateRole(ctx context.Context, id string, mutate func(*authz.Role) error) (*authz.Role, error) {
	start := time.Now()
	role, err := s.inner.UpdateRole(ctx, id, mutate)
	s.observe("update_role", "role", start, err)
	return role, err
}

func (s *instrumentedStore) DeleteRole(ctx context.Context, id string) error {
	start := time.Now()
	err := s.inner.DeleteRole(ctx, id)
	s.observe("delete_role", "role", start, err)
	if err == nil {
		s.metrics.RolesTotal.Dec()
	}
	return err
}

func (s *instrumentedStore) ListRoles(ctx context.Context) ([]*authz.Role, error) {
	start := time.Now()
	roles, err := s.inner.ListRoles(ctx)
	s.observe("list_roles", "role", start, err)
	if err == nil {
		s.metrics.RolesTotal.Set(float64(len(roles)))
	}
	return roles, err
}

func (s *instrumentedStore) ReplaceAll(ctx context.Context, groups []*authz.Group, roles []*authz.Role) error {
	start := time.Now()
	err := s.inner.ReplaceAll(ctx, groups, roles)
	s.observe("replace_all", "snapshot", start, err)
	if err == nil {
		s.metrics.GroupsTotal.Set(float64(len(groups)))
		s.metrics.RolesTotal.Set(float64(len(roles)))
	}
	return err
}

func (s *instrumentedStore) HealthCheck(ctx context.Context) error {
	return s.inner.HealthCheck(ctx)
}
