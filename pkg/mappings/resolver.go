package mappings

import (
	"context"
	"fmt"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/directory"
)

// Resolver attaches identity-provider connection mappings to groups. The
// raw groupName and connectionName supplied by the caller are stored
// verbatim for audit; the canonical display form is resolved through the
// identity directory when the mapping is added and surfaced on reads.
type Resolver struct {
	store authz.Store
	dir   directory.Directory
}

// NewResolver creates a mapping resolver. dir may be nil, in which case
// every resolution falls back to echoing the connection name.
func NewResolver(store authz.Store, dir directory.Directory) *Resolver {
	return &Resolver{store: store, dir: dir}
}

// AddMappings resolves and attaches mappings to a group. Directory lookups
// happen before the group is touched, so external directory latency never
// holds up the store; the resolved mappings are then committed in one
// atomic group update. A mapping that already exists (same groupName and
// connectionName) has its resolved form refreshed in place.
func (r *Resolver) AddMappings(ctx context.Context, groupID string, input []authz.Mapping) error {
	staged := make([]authz.Mapping, 0, len(input))
	for _, m := range input {
		if m.GroupName == "" {
			return &authz.ValidationError{Field: "groupName", Reason: "required"}
		}
		if m.ConnectionName == "" {
			return &authz.ValidationError{Field: "connectionName", Reason: "required"}
		}
		staged = append(staged, authz.Mapping{
			GroupName:          m.GroupName,
			ConnectionName:     m.ConnectionName,
			ResolvedConnection: r.resolve(ctx, m.ConnectionName),
		})
	}

	_, err := r.store.UpdateGroup(ctx, groupID, func(g *authz.Group) error {
		for _, m := range staged {
			if i := indexOf(g.Mappings, m); i >= 0 {
				g.Mappings[i].ResolvedConnection = m.ResolvedConnection
				continue
			}
			g.Mappings = append(g.Mappings, m)
		}
		return nil
	})
	return err
}

// Mappings returns the group's mappings in resolved form: the stored
// resolved display string is exposed under connectionName, keeping the
// external contract stable while the raw value stays internal.
func (r *Resolver) Mappings(ctx context.Context, groupID string) ([]authz.Mapping, error) {
	group, err := r.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	resolved := make([]authz.Mapping, 0, len(group.Mappings))
	for _, m := range group.Mappings {
		display := m.ResolvedConnection
		if display == "" {
			// Mappings imported from a snapshot predating resolution.
			display = fallbackDisplay(m.ConnectionName)
		}
		resolved = append(resolved, authz.Mapping{
			GroupName:      m.GroupName,
			ConnectionName: display,
		})
	}
	return resolved, nil
}

// ClearMappings removes all mappings from the group. Clearing a group that
// has no mappings is a no-op.
func (r *Resolver) ClearMappings(ctx context.Context, groupID string) error {
	_, err := r.store.UpdateGroup(ctx, groupID, func(g *authz.Group) error {
		g.Mappings = nil
		return nil
	})
	return err
}

// resolve produces the canonical display form for a connection name. When
// the directory has no entry (or no directory is wired) the name echoes
// itself, matching the observed self-referential fallback.
func (r *Resolver) resolve(ctx context.Context, connectionName string) string {
	if r.dir == nil {
		return fallbackDisplay(connectionName)
	}
	conn, err := r.dir.LookupConnection(ctx, connectionName)
	if err != nil {
		return fallbackDisplay(connectionName)
	}
	return fmt.Sprintf("%s (%s)", connectionName, conn.Display())
}

func fallbackDisplay(connectionName string) string {
	return fmt.Sprintf("%s (%s)", connectionName, connectionName)
}

func indexOf(mappings []authz.Mapping, want authz.Mapping) int {
	for i, m := range mappings {
		if m.GroupName == want.GroupName && m.ConnectionName == want.ConnectionName {
			return i
		}
	}
	return -1
}
