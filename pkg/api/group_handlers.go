package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/graph"
	"github.com/wardenhq/warden/pkg/httputil"
	"github.com/wardenhq/warden/pkg/mappings"
)

// GroupHandlers serves the /groups resource: group CRUD, membership and
// nesting edges, role assignments and identity-provider mappings.
type GroupHandlers struct {
	graph    *graph.Service
	mappings *mappings.Resolver
}

// NewGroupHandlers creates the group handler set.
func NewGroupHandlers(graphSvc *graph.Service, resolver *mappings.Resolver) *GroupHandlers {
	return &GroupHandlers{graph: graphSvc, mappings: resolver}
}

// RegisterRoutes registers all group routes on the router.
func (h *GroupHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/groups", h.createGroup).Methods("POST")
	router.HandleFunc("/groups", h.listGroups).Methods("GET")
	router.HandleFunc("/groups/{id}", h.getGroup).Methods("GET")
	router.HandleFunc("/groups/{id}", h.updateGroup).Methods("PUT")
	router.HandleFunc("/groups/{id}", h.deleteGroup).Methods("DELETE")

	router.HandleFunc("/groups/{id}/members", h.addMembers).Methods("PATCH")
	router.HandleFunc("/groups/{id}/members", h.listMembers).Methods("GET")
	router.HandleFunc("/groups/{id}/members", h.removeMembers).Methods("DELETE")
	router.HandleFunc("/groups/{id}/members/nested", h.listNestedMembers).Methods("GET")

	router.HandleFunc("/groups/{id}/nested", h.addNested).Methods("PATCH")
	router.HandleFunc("/groups/{id}/nested", h.listNested).Methods("GET")
	router.HandleFunc("/groups/{id}/nested", h.removeNested).Methods("DELETE")

	router.HandleFunc("/groups/{id}/roles", h.addRoles).Methods("PATCH")
	router.HandleFunc("/groups/{id}/roles", h.listRoles).Methods("GET")
	router.HandleFunc("/groups/{id}/roles", h.removeRoles).Methods("DELETE")
	router.HandleFunc("/groups/{id}/roles/nested", h.listNestedRoles).Methods("GET")
	router.HandleFunc("/groups/{id}/permissions/nested", h.listNestedPermissions).Methods("GET")

	router.HandleFunc("/groups/{id}/mappings", h.addMappings).Methods("PATCH")
	router.HandleFunc("/groups/{id}/mappings", h.listMappings).Methods("GET")
	router.HandleFunc("/groups/{id}/mappings", h.clearMappings).Methods("DELETE")
}

func (h *GroupHandlers) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	group, err := h.graph.CreateGroup(r.Context(), req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, group)
}

func (h *GroupHandlers) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.graph.ListGroups(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, groupListResponse{Groups: groups, Total: len(groups)})
}

func (h *GroupHandlers) getGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	group, err := h.graph.GetGroup(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, group)
}

func (h *GroupHandlers) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	var req createGroupRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	group, err := h.graph.UpdateGroupDetails(r.Context(), id, req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, group)
}

func (h *GroupHandlers) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.graph.DeleteGroup(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *GroupHandlers) addMembers(w http.ResponseWriter, r *http.Request) {
	h.patchMembers(w, r, authz.MemberUser, h.graph.AddMembers)
}

func (h *GroupHandlers) removeMembers(w http.ResponseWriter, r *http.Request) {
	h.patchMembers(w, r, authz.MemberUser, h.graph.RemoveMembers)
}

func (h *GroupHandlers) addNested(w http.ResponseWriter, r *http.Request) {
	h.patchMembers(w, r, authz.MemberGroup, h.graph.AddMembers)
}

func (h *GroupHandlers) removeNested(w http.ResponseWriter, r *http.Request) {
	h.patchMembers(w, r, authz.MemberGroup, h.graph.RemoveMembers)
}

// patchMembers handles the shared body shape of the member and nested-group
// edge endpoints: a JSON array of ids, applied as refs of the given kind.
func (h *GroupHandlers) patchMembers(w http.ResponseWriter, r *http.Request, kind authz.MemberKind, apply func(ctx context.Context, groupID string, refs []authz.MemberRef) error) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	var ids []string
	if !httputil.ParseJSONOrError(w, r, &ids) {
		return
	}
	refs := make([]authz.MemberRef, 0, len(ids))
	for _, memberID := range ids {
		refs = append(refs, authz.MemberRef{Kind: kind, ID: memberID})
	}
	if err := apply(r.Context(), id, refs); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *GroupHandlers) listMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	refs, err := h.graph.DirectMembers(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var userIDs []string
	for _, ref := range refs {
		if ref.Kind == authz.MemberUser {
			userIDs = append(userIDs, ref.ID)
		}
	}
	httputil.WriteSuccess(w, newUserListResponse(userIDs))
}

func (h *GroupHandlers) listNestedMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	userIDs, err := h.graph.NestedMembers(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, newUserListResponse(userIDs))
}

func (h *GroupHandlers) listNested(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	group, err := h.graph.GetGroup(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	nested := make([]*authz.Group, 0, len(group.Nested))
	for _, nestedID := range group.Nested {
		child, err := h.graph.GetGroup(r.Context(), nestedID)
		if err != nil {
			if authz.IsNotFound(err) {
				continue
			}
			writeDomainError(w, err)
			return
		}
		nested = append(nested, child)
	}
	httputil.WriteSuccess(w, groupListResponse{Groups: nested, Total: len(nested)})
}

func (h *GroupHandlers) addRoles(w http.ResponseWriter, r *http.Request) {
	h.patchRoles(w, r, h.graph.AddRoles)
}

func (h *GroupHandlers) removeRoles(w http.ResponseWriter, r *http.Request) {
	h.patchRoles(w, r, h.graph.RemoveRoles)
}

func (h *GroupHandlers) patchRoles(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, groupID string, roleIDs []string) error) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	var roleIDs []string
	if !httputil.ParseJSONOrError(w, r, &roleIDs) {
		return
	}
	if err := apply(r.Context(), id, roleIDs); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *GroupHandlers) listRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	roles, err := h.graph.DirectRoles(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, roles)
}

func (h *GroupHandlers) listNestedRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	roles, err := h.graph.NestedRoles(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, roles)
}

func (h *GroupHandlers) listNestedPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	permissions, err := h.graph.NestedPermissions(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, permissions)
}

func (h *GroupHandlers) addMappings(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	var reqs []mappingRequest
	if !httputil.ParseJSONOrError(w, r, &reqs) {
		return
	}
	input := make([]authz.Mapping, 0, len(reqs))
	for _, m := range reqs {
		input = append(input, authz.Mapping{GroupName: m.GroupName, ConnectionName: m.ConnectionName})
	}
	if err := h.mappings.AddMappings(r.Context(), id, input); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *GroupHandlers) listMappings(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	resolved, err := h.mappings.Mappings(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, resolved)
}

func (h *GroupHandlers) clearMappings(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.mappings.ClearMappings(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
