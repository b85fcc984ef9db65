package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/directory"
	"github.com/wardenhq/warden/pkg/store"
)

func TestInstrumentStoreNilMetrics(t *testing.T) {
	inner := store.NewMemoryStore()
	assert.Same(t, authz.Store(inner), InstrumentStore(inner, "memory", nil))
}

func TestInstrumentedStoreRecordsOperations(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	s := InstrumentStore(store.NewMemoryStore(), "memory", m)

	group := &authz.Group{Name: "ops"}
	require.NoError(t, s.CreateGroup(ctx, group))
	_, err := s.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	_, err = s.GetGroup(ctx, "missing")
	require.Error(t, err)

	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("create_group", "memory", "success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("get_group", "memory", "success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("get_group", "memory", "error")))
}

func TestInstrumentedStoreTracksInventoryGauges(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	s := InstrumentStore(store.NewMemoryStore(), "memory", m)

	g1 := &authz.Group{Name: "a"}
	g2 := &authz.Group{Name: "b"}
	require.NoError(t, s.CreateGroup(ctx, g1))
	require.NoError(t, s.CreateGroup(ctx, g2))
	require.NoError(t, s.CreateRole(ctx, &authz.Role{Name: "r"}))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.GroupsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RolesTotal))

	require.NoError(t, s.DeleteGroup(ctx, g2.ID))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GroupsTotal))

	// ReplaceAll resets both gauges to the imported counts.
	require.NoError(t, s.ReplaceAll(ctx, nil, nil))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.GroupsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RolesTotal))
}

func TestInstrumentedDirectoryRecordsLookups(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	dir := InstrumentDirectory(directory.NewStaticDirectory([]directory.Connection{
		{Name: "corp-ad", DisplayName: "Corp AD"},
	}), m)

	_, err := dir.LookupConnection(ctx, "corp-ad")
	require.NoError(t, err)
	_, err = dir.LookupConnection(ctx, "nope")
	require.Error(t, err)

	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.DirectoryLookupsTotal.WithLabelValues("resolved")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.DirectoryLookupsTotal.WithLabelValues("not_found")))
}
