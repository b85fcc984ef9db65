package snapshot

import (
	"fmt"

	"github.com/wardenhq/warden/pkg/authz"
)

// Snapshot is a self-contained copy of the engine's configuration: every
// group (with members, nesting, role attachments and mappings) and every
// role. A snapshot with no content marshals to an empty JSON object.
type Snapshot struct {
	Groups []*authz.Group `json:"groups,omitempty"`
	Roles  []*authz.Role  `json:"roles,omitempty"`
}

// Validate checks the snapshot for internal consistency: unique non-empty
// ids, nested and role references that resolve within the snapshot itself,
// and a nesting relation free of cycles. A snapshot that fails validation
// must not be imported.
func (s *Snapshot) Validate() error {
	groupIDs := make(map[string]struct{}, len(s.Groups))
	for _, g := range s.Groups {
		if g == nil || g.ID == "" {
			return &authz.InvalidSnapshotError{Reason: "group with empty id"}
		}
		if _, dup := groupIDs[g.ID]; dup {
			return &authz.InvalidSnapshotError{Reason: fmt.Sprintf("duplicate group id %q", g.ID)}
		}
		groupIDs[g.ID] = struct{}{}
	}

	roleIDs := make(map[string]struct{}, len(s.Roles))
	for _, r := range s.Roles {
		if r == nil || r.ID == "" {
			return &authz.InvalidSnapshotError{Reason: "role with empty id"}
		}
		if _, dup := roleIDs[r.ID]; dup {
			return &authz.InvalidSnapshotError{Reason: fmt.Sprintf("duplicate role id %q", r.ID)}
		}
		roleIDs[r.ID] = struct{}{}
	}

	for _, g := range s.Groups {
		for _, nested := range g.Nested {
			if _, ok := groupIDs[nested]; !ok {
				return &authz.InvalidSnapshotError{
					Reason: fmt.Sprintf("group %q nests unknown group %q", g.ID, nested),
				}
			}
		}
		for _, roleID := range g.Roles {
			if _, ok := roleIDs[roleID]; !ok {
				return &authz.InvalidSnapshotError{
					Reason: fmt.Sprintf("group %q references unknown role %q", g.ID, roleID),
				}
			}
		}
	}

	if cyclic, id := s.findNestingCycle(); cyclic {
		return &authz.InvalidSnapshotError{
			Reason: fmt.Sprintf("group nesting cycle involving %q", id),
		}
	}
	return nil
}

// findNestingCycle runs a three-color DFS over the nesting relation and
// reports the first group found on a cycle.
func (s *Snapshot) findNestingCycle() (bool, string) {
	adjacency := make(map[string][]string, len(s.Groups))
	for _, g := range s.Groups {
		adjacency[g.ID] = g.Nested
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(adjacency))

	var visit func(id string) (bool, string)
	visit = func(id string) (bool, string) {
		color[id] = gray
		for _, next := range adjacency[id] {
			switch color[next] {
			case gray:
				return true, next
			case white:
				if found, at := visit(next); found {
					return true, at
				}
			}
		}
		color[id] = black
		return false, ""
	}

	for _, g := range s.Groups {
		if color[g.ID] != white {
			continue
		}
		if found, at := visit(g.ID); found {
			return true, at
		}
	}
	return false, ""
}
