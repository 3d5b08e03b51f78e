package assignment

import "github.com/assetdesk/assetdesk/internal/directory"

// AssignRolesRequest is a batch role change. Nil fields are left unchanged;
// all provided fields apply as one atomic update.
type AssignRolesRequest struct {
	Staff             *bool    `json:"is_staff,omitempty"`
	Superuser         *bool    `json:"is_superuser,omitempty"`
	GroupIDs          *[]int64 `json:"group_ids,omitempty"`
	DirectPermissions *[]int64 `json:"direct_permission_ids,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r AssignRolesRequest) Empty() bool {
	return r.Staff == nil && r.Superuser == nil && r.GroupIDs == nil && r.DirectPermissions == nil
}

// Result is the post-assignment state returned to the caller.
type Result struct {
	Principal            *directory.Principal `json:"principal"`
	AllPermissions       bool                 `json:"all_permissions"`
	EffectivePermissions []string             `json:"effective_permissions"`
}
