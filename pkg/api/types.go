package api

import "github.com/wardenhq/warden/pkg/authz"

// Request bodies.

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createRoleRequest struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	ApplicationType string             `json:"applicationType"`
	ApplicationID   string             `json:"applicationId"`
	Permissions     []authz.Permission `json:"permissions"`
}

type mappingRequest struct {
	GroupName      string `json:"groupName"`
	ConnectionName string `json:"connectionName"`
}

// Response shapes.

type groupListResponse struct {
	Groups []*authz.Group `json:"groups"`
	Total  int            `json:"total"`
}

type roleListResponse struct {
	Roles []*authz.Role `json:"roles"`
	Total int           `json:"total"`
}

type userEntry struct {
	UserID string `json:"user_id"`
}

type userListResponse struct {
	Users []userEntry `json:"users"`
	Total int         `json:"total"`
}

func newUserListResponse(userIDs []string) userListResponse {
	users := make([]userEntry, 0, len(userIDs))
	for _, id := range userIDs {
		users = append(users, userEntry{UserID: id})
	}
	return userListResponse{Users: users, Total: len(users)}
}
