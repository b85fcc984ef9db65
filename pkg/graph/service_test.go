package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.NewMemoryStore(), nil, nil, nil)
}

func mustCreateGroup(t *testing.T, s *Service, name string) *authz.Group {
	t.Helper()
	group, err := s.CreateGroup(context.Background(), name, name+" description")
	require.NoError(t, err)
	return group
}

func TestCreateGroupRequiresName(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateGroup(context.Background(), "", "no name")
	assert.True(t, authz.IsValidation(err))
}

func TestAddAndRemoveUserMembers(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	group := mustCreateGroup(t, s, "engineering")

	require.NoError(t, s.AddMembers(ctx, group.ID, []authz.MemberRef{
		authz.UserRef("auth0|test-user-12345"),
	}))

	members, err := s.DirectMembers(ctx, group.ID)
	require.NoError(t, err)
	assert.Contains(t, members, authz.UserRef("auth0|test-user-12345"))

	// Duplicate add is an idempotent no-op.
	require.NoError(t, s.AddMembers(ctx, group.ID, []authz.MemberRef{
		authz.UserRef("auth0|test-user-12345"),
	}))
	members, err = s.DirectMembers(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	require.NoError(t, s.RemoveMembers(ctx, group.ID, []authz.MemberRef{
		authz.UserRef("auth0|test-user-12345"),
	}))
	members, err = s.DirectMembers(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	// Removing an already-absent edge succeeds and changes nothing.
	require.NoError(t, s.RemoveMembers(ctx, group.ID, []authz.MemberRef{
		authz.UserRef("auth0|test-user-12345"),
	}))
}

func TestAddMembersValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	group := mustCreateGroup(t, s, "engineering")

	err := s.AddMembers(ctx, group.ID, []authz.MemberRef{{Kind: authz.MemberUser, ID: ""}})
	assert.True(t, authz.IsValidation(err))

	err = s.AddMembers(ctx, group.ID, []authz.MemberRef{{Kind: "robot", ID: "r2d2"}})
	assert.True(t, authz.IsValidation(err))

	err = s.AddMembers(ctx, "missing", []authz.MemberRef{authz.UserRef("auth0|u1")})
	assert.True(t, authz.IsNotFound(err))

	err = s.AddMembers(ctx, group.ID, []authz.MemberRef{authz.GroupRef("missing")})
	assert.True(t, authz.IsNotFound(err))
}

func TestCyclePrevention(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustCreateGroup(t, s, "a")
	b := mustCreateGroup(t, s, "b")
	c := mustCreateGroup(t, s, "c")

	// b contains a, c contains b.
	require.NoError(t, s.AddMembers(ctx, b.ID, []authz.MemberRef{authz.GroupRef(a.ID)}))
	require.NoError(t, s.AddMembers(ctx, c.ID, []authz.MemberRef{authz.GroupRef(b.ID)}))

	// a containing c would close the cycle.
	err := s.AddMembers(ctx, a.ID, []authz.MemberRef{authz.GroupRef(c.ID)})
	assert.True(t, authz.IsCycle(err))

	// Self-containment is the degenerate cycle.
	err = s.AddMembers(ctx, a.ID, []authz.MemberRef{authz.GroupRef(a.ID)})
	assert.True(t, authz.IsCycle(err))

	// Nothing was committed by the failed operations.
	for _, g := range []*authz.Group{a, b, c} {
		fetched, err := s.GetGroup(ctx, g.ID)
		require.NoError(t, err)
		switch g.ID {
		case a.ID:
			assert.Empty(t, fetched.Nested)
		case b.ID:
			assert.Equal(t, []string{a.ID}, fetched.Nested)
		case c.ID:
			assert.Equal(t, []string{b.ID}, fetched.Nested)
		}
	}
}

func TestCycleCheckRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustCreateGroup(t, s, "a")
	b := mustCreateGroup(t, s, "b")

	require.NoError(t, s.AddMembers(ctx, b.ID, []authz.MemberRef{authz.GroupRef(a.ID)}))

	// The batch carries one valid edge and one cycle-forming edge; neither
	// may land.
	err := s.AddMembers(ctx, a.ID, []authz.MemberRef{
		authz.UserRef("auth0|u1"),
		authz.GroupRef(b.ID),
	})
	assert.True(t, authz.IsCycle(err))

	fetched, err := s.GetGroup(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.Members)
	assert.Empty(t, fetched.Nested)
}

func TestCycleCheckSeesEdgesStagedInSameBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	a := mustCreateGroup(t, s, "a")
	b := mustCreateGroup(t, s, "b")

	require.NoError(t, s.AddMembers(ctx, b.ID, []authz.MemberRef{authz.GroupRef(a.ID)}))

	// Batch staging: the a->b edge cannot be snuck in behind b->a... here we
	// check a batch that is internally consistent still works.
	c := mustCreateGroup(t, s, "c")
	require.NoError(t, s.AddMembers(ctx, c.ID, []authz.MemberRef{
		authz.GroupRef(a.ID),
		authz.GroupRef(b.ID),
	}))

	fetched, err := s.GetGroup(ctx, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, fetched.Nested)
}

func TestNestedMembersClosure(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	g1 := mustCreateGroup(t, s, "g1")
	g2 := mustCreateGroup(t, s, "g2")
	g3 := mustCreateGroup(t, s, "g3")

	// g1 contains g2 contains g3; u sits in g3.
	require.NoError(t, s.AddMembers(ctx, g1.ID, []authz.MemberRef{authz.GroupRef(g2.ID)}))
	require.NoError(t, s.AddMembers(ctx, g2.ID, []authz.MemberRef{authz.GroupRef(g3.ID)}))
	require.NoError(t, s.AddMembers(ctx, g3.ID, []authz.MemberRef{authz.UserRef("auth0|u")}))

	users, err := s.NestedMembers(ctx, g1.ID)
	require.NoError(t, err)
	assert.Contains(t, users, "auth0|u")

	// Cutting the g2->g3 edge removes u from g1's closure.
	require.NoError(t, s.RemoveMembers(ctx, g2.ID, []authz.MemberRef{authz.GroupRef(g3.ID)}))
	users, err = s.NestedMembers(ctx, g1.ID)
	require.NoError(t, err)
	assert.NotContains(t, users, "auth0|u")
}

func TestNestedMembersIncludesDirectAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	parent := mustCreateGroup(t, s, "parent")
	childA := mustCreateGroup(t, s, "child-a")
	childB := mustCreateGroup(t, s, "child-b")

	require.NoError(t, s.AddMembers(ctx, parent.ID, []authz.MemberRef{
		authz.UserRef("auth0|direct"),
		authz.GroupRef(childA.ID),
		authz.GroupRef(childB.ID),
	}))
	// The same user in both children appears once in the closure.
	require.NoError(t, s.AddMembers(ctx, childA.ID, []authz.MemberRef{authz.UserRef("auth0|shared")}))
	require.NoError(t, s.AddMembers(ctx, childB.ID, []authz.MemberRef{authz.UserRef("auth0|shared")}))

	users, err := s.NestedMembers(ctx, parent.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"auth0|direct", "auth0|shared"}, users)
}

func TestNestedMembersTerminatesOnCorruptCycle(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemoryStore()
	s := NewService(backing, nil, nil, nil)

	// Bypass the engine and plant a structural cycle directly in the store.
	a := &authz.Group{ID: "a", Name: "a", Nested: []string{"b"}, Members: []string{"auth0|ua"}}
	b := &authz.Group{ID: "b", Name: "b", Nested: []string{"a"}, Members: []string{"auth0|ub"}}
	require.NoError(t, backing.ReplaceAll(ctx, []*authz.Group{a, b}, nil))

	users, err := s.NestedMembers(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"auth0|ua", "auth0|ub"}, users)
}

func TestDeleteGroupCascadesNestedEdges(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	parent := mustCreateGroup(t, s, "parent")
	child := mustCreateGroup(t, s, "child")

	require.NoError(t, s.AddMembers(ctx, parent.ID, []authz.MemberRef{authz.GroupRef(child.ID)}))
	require.NoError(t, s.DeleteGroup(ctx, child.ID))

	fetched, err := s.GetGroup(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.Nested)

	_, err = s.GetGroup(ctx, child.ID)
	assert.True(t, authz.IsNotFound(err))
}

func TestDeleteGroupNotFound(t *testing.T) {
	s := newTestService(t)
	err := s.DeleteGroup(context.Background(), "missing")
	assert.True(t, authz.IsNotFound(err))
}

func TestUpdateGroupDetails(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	group := mustCreateGroup(t, s, "old-name")

	updated, err := s.UpdateGroupDetails(ctx, group.ID, "new-name", "new description")
	require.NoError(t, err)
	assert.Equal(t, group.ID, updated.ID)
	assert.Equal(t, "new-name", updated.Name)

	_, err = s.UpdateGroupDetails(ctx, group.ID, "", "x")
	assert.True(t, authz.IsValidation(err))
}
