package models

import "github.com/upb/permguard/rbac"

// Permissions used by the reference server
const (
	PermPostCreate    rbac.Permission = "post:create"
	PermPostEditAny   rbac.Permission = "post:edit:any"
	PermPostDelete    rbac.Permission = "post:delete"
	PermPostDeleteAny rbac.Permission = "post:delete:any"
	PermUserBan       rbac.Permission = "user:ban"
)

// DefaultRolePermissions is the role table used when no roles file is configured
func DefaultRolePermissions() rbac.RolePermissions {
	return rbac.RolePermissions{
		RoleUser:      {PermPostCreate, PermPostDelete},
		RoleModerator: {PermPostCreate, PermPostDelete, PermPostEditAny, PermPostDeleteAny},
		RoleAdmin:     {PermPostCreate, PermPostDelete, PermPostEditAny, PermPostDeleteAny, PermUserBan},
	}
}
