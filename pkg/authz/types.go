package authz

// MemberKind discriminates the two kinds of group member references.
type MemberKind string

const (
	MemberUser  MemberKind = "user"
	MemberGroup MemberKind = "group"
)

// MemberRef is a tagged reference to a group member: either an opaque
// external user identity or another group. Keeping the tag explicit forces
// traversal code to handle both variants.
type MemberRef struct {
	Kind MemberKind `json:"kind"`
	ID   string     `json:"id"`
}

// UserRef builds a member reference for an external user identity.
func UserRef(id string) MemberRef {
	return MemberRef{Kind: MemberUser, ID: id}
}

// GroupRef builds a member reference for a nested group.
func GroupRef(id string) MemberRef {
	return MemberRef{Kind: MemberGroup, ID: id}
}

// Mapping associates a group with an external identity-provider connection.
// ConnectionName holds the raw value supplied by the caller;
// ResolvedConnection holds the canonical display form computed when the
// mapping was added. Read paths surface the resolved form.
type Mapping struct {
	GroupName          string `json:"groupName"`
	ConnectionName     string `json:"connectionName"`
	ResolvedConnection string `json:"resolvedConnection,omitempty"`
}

// Group is a named collection of members (users or nested groups) with
// associated roles and identity-provider mappings. Members holds external
// user ids, Nested holds ids of contained groups; together they form the
// membership graph's edges keyed by opaque id.
type Group struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Members     []string  `json:"members,omitempty"`
	Nested      []string  `json:"nested,omitempty"`
	Roles       []string  `json:"roles,omitempty"`
	Mappings    []Mapping `json:"mappings,omitempty"`

	// Version is the optimistic concurrency token maintained by the store.
	Version int64 `json:"-"`
}

// MemberRefs returns the group's direct members as tagged references,
// users first, then nested groups.
func (g *Group) MemberRefs() []MemberRef {
	refs := make([]MemberRef, 0, len(g.Members)+len(g.Nested))
	for _, id := range g.Members {
		refs = append(refs, UserRef(id))
	}
	for _, id := range g.Nested {
		refs = append(refs, GroupRef(id))
	}
	return refs
}

// HasMember reports whether the user id is a direct member.
func (g *Group) HasMember(userID string) bool {
	return containsString(g.Members, userID)
}

// HasNested reports whether the group id is a direct nested group.
func (g *Group) HasNested(groupID string) bool {
	return containsString(g.Nested, groupID)
}

// HasRole reports whether the role id is directly assigned.
func (g *Group) HasRole(roleID string) bool {
	return containsString(g.Roles, roleID)
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	dup := *g
	dup.Members = append([]string(nil), g.Members...)
	dup.Nested = append([]string(nil), g.Nested...)
	dup.Roles = append([]string(nil), g.Roles...)
	dup.Mappings = append([]Mapping(nil), g.Mappings...)
	return &dup
}

// Permission is the atomic grantable unit. Permissions have no lifecycle of
// their own; they live inline on the roles that grant them.
type Permission struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	ApplicationType string `json:"applicationType"`
	ApplicationID   string `json:"applicationId"`
}

// Role is a named set of permissions scoped to a target application.
type Role struct {
	ID              string       `json:"_id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	ApplicationType string       `json:"applicationType"`
	ApplicationID   string       `json:"applicationId"`
	Permissions     []Permission `json:"permissions,omitempty"`

	// Version is the optimistic concurrency token maintained by the store.
	Version int64 `json:"-"`
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	dup := *r
	dup.Permissions = append([]Permission(nil), r.Permissions...)
	return &dup
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
