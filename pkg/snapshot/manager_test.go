package snapshot

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/observability"
	"github.com/wardenhq/warden/pkg/store"
)

func seedStore(t *testing.T, s authz.Store) {
	t.Helper()
	ctx := context.Background()

	role := &authz.Role{Name: "reader"}
	require.NoError(t, s.CreateRole(ctx, role))

	child := &authz.Group{Name: "platform"}
	require.NoError(t, s.CreateGroup(ctx, child))
	require.NoError(t, s.CreateGroup(ctx, &authz.Group{
		Name:    "engineering",
		Members: []string{"u1", "u2"},
		Nested:  []string{child.ID},
		Roles:   []string{role.ID},
	}))
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStore()
	seedStore(t, src)

	snap, err := NewManager(src, nil, nil, nil).Export(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Groups, 2)
	require.Len(t, snap.Roles, 1)

	// Importing the export into a fresh store reproduces the configuration.
	dst := store.NewMemoryStore()
	require.NoError(t, NewManager(dst, nil, nil, nil).Import(ctx, snap))

	snap2, err := NewManager(dst, nil, nil, nil).Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, snap2)
}

func TestExportSortedByID(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, s.CreateGroup(ctx, &authz.Group{Name: name}))
	}

	snap, err := NewManager(s, nil, nil, nil).Export(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Groups, 3)
	assert.Less(t, snap.Groups[0].ID, snap.Groups[1].ID)
	assert.Less(t, snap.Groups[1].ID, snap.Groups[2].ID)
}

func TestImportNilClearsState(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedStore(t, s)

	m := NewManager(s, nil, nil, nil)
	require.NoError(t, m.Import(ctx, nil))

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
	roles, err := s.ListRoles(ctx)
	require.NoError(t, err)
	assert.Empty(t, roles)

	snap, err := m.Export(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Groups)
	assert.Nil(t, snap.Roles)
}

func TestImportInvalidLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedStore(t, s)

	m := NewManager(s, nil, nil, nil)
	before, err := m.Export(ctx)
	require.NoError(t, err)

	err = m.Import(ctx, &Snapshot{
		Groups: []*authz.Group{{ID: "g1", Name: "a", Nested: []string{"ghost"}}},
	})
	require.Error(t, err)
	assert.True(t, authz.IsInvalidSnapshot(err))

	after, err := m.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImportReplacesExistingState(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedStore(t, s)

	m := NewManager(s, nil, nil, nil)
	require.NoError(t, m.Import(ctx, &Snapshot{
		Groups: []*authz.Group{{ID: "only", Name: "only-group"}},
	}))

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "only", groups[0].ID)

	roles, err := s.ListRoles(ctx)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestManagerRecordsOperationMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	s := store.NewMemoryStore()
	seedStore(t, s)
	m := NewManager(s, nil, nil, metrics)

	snap, err := m.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Import(ctx, snap))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.SnapshotOperationsTotal.WithLabelValues("export", "success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.SnapshotOperationsTotal.WithLabelValues("import", "success")))

	err = m.Import(ctx, &Snapshot{
		Groups: []*authz.Group{{ID: "g1", Name: "a", Nested: []string{"ghost"}}},
	})
	require.Error(t, err)
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.SnapshotOperationsTotal.WithLabelValues("import", "error")))
}
