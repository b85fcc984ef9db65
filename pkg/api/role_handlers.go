package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/graph"
	"github.com/wardenhq/warden/pkg/httputil"
)

// RoleHandlers serves the /roles resource.
type RoleHandlers struct {
	graph *graph.Service
}

// NewRoleHandlers creates the role handler set.
func NewRoleHandlers(graphSvc *graph.Service) *RoleHandlers {
	return &RoleHandlers{graph: graphSvc}
}

// RegisterRoutes registers all role routes on the router.
func (h *RoleHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/roles", h.createRole).Methods("POST")
	router.HandleFunc("/roles", h.listRoles).Methods("GET")
	router.HandleFunc("/roles/{id}", h.getRole).Methods("GET")
	router.HandleFunc("/roles/{id}", h.updateRole).Methods("PUT")
	router.HandleFunc("/roles/{id}", h.deleteRole).Methods("DELETE")
}

func (h *RoleHandlers) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	role, err := h.graph.CreateRole(r.Context(), roleFromRequest(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, role)
}

func (h *RoleHandlers) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.graph.ListRoles(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, roleListResponse{Roles: roles, Total: len(roles)})
}

func (h *RoleHandlers) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	role, err := h.graph.GetRole(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, role)
}

func (h *RoleHandlers) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	var req createRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	role, err := h.graph.UpdateRole(r.Context(), id, roleFromRequest(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, role)
}

func (h *RoleHandlers) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathVarOrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.graph.DeleteRole(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func roleFromRequest(req createRoleRequest) *authz.Role {
	return &authz.Role{
		Name:            req.Name,
		Description:     req.Description,
		ApplicationType: req.ApplicationType,
		ApplicationID:   req.ApplicationID,
		Permissions:     req.Permissions,
	}
}
