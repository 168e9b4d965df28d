package rbac

import (
	"errors"
	"fmt"
	"sort"
)

// Role names a class of users sharing a permission set.
type Role string

// Permission names a single allowed action.
type Permission string

// RolePermissions maps each role to the permissions it grants.
// A role without an entry grants nothing.
type RolePermissions map[Role][]Permission

// ErrInvalidTable is returned by Validate for malformed tables
var ErrInvalidTable = errors.New("invalid role permission table")

// UserCan reports whether role grants permission under table.
func UserCan(role Role, permission Permission, table RolePermissions) bool {
	for _, p := range table[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// UserCanAny reports whether role grants at least one of permissions.
// An empty list is never satisfied.
func UserCanAny(role Role, permissions []Permission, table RolePermissions) bool {
	for _, p := range permissions {
		if UserCan(role, p, table) {
			return true
		}
	}
	return false
}

// UserCanAll reports whether role grants every one of permissions.
// An empty list is always satisfied.
func UserCanAll(role Role, permissions []Permission, table RolePermissions) bool {
	for _, p := range permissions {
		if !UserCan(role, p, table) {
			return false
		}
	}
	return true
}

// PermissionsFor returns a deduplicated copy of the permissions granted to role,
// in table order.
func (t RolePermissions) PermissionsFor(role Role) []Permission {
	granted := t[role]
	out := make([]Permission, 0, len(granted))
	seen := make(map[Permission]struct{}, len(granted))
	for _, p := range granted {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Roles returns the roles present in the table, sorted.
func (t RolePermissions) Roles() []Role {
	roles := make([]Role, 0, len(t))
	for r := range t {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Validate rejects empty role or permission identifiers.
func (t RolePermissions) Validate() error {
	for _, role := range t.Roles() {
		if role == "" {
			return fmt.Errorf("%w: empty role name", ErrInvalidTable)
		}
		for i, p := range t[role] {
			if p == "" {
				return fmt.Errorf("%w: role %q has an empty permission at index %d", ErrInvalidTable, role, i)
			}
		}
	}
	return nil
}
