package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	roleAdmin Role = "ADMIN"
	roleUser  Role = "USER"
	roleGuest Role = "GUEST"

	permRead   Permission = "post:read"
	permWrite  Permission = "post:write"
	permDelete Permission = "post:delete"
)

func testTable() RolePermissions {
	return RolePermissions{
		roleAdmin: {permRead, permWrite, permDelete},
		roleUser:  {permRead, permWrite, permRead},
		roleGuest: {},
	}
}

func TestUserCan(t *testing.T) {
	table := testTable()

	tests := []struct {
		name       string
		role       Role
		permission Permission
		table      RolePermissions
		want       bool
	}{
		{name: "granted permission", role: roleUser, permission: permWrite, table: table, want: true},
		{name: "missing permission", role: roleUser, permission: permDelete, table: table, want: false},
		{name: "role with empty list", role: roleGuest, permission: permRead, table: table, want: false},
		{name: "unknown role", role: Role("GHOST"), permission: permRead, table: table, want: false},
		{name: "unknown permission", role: roleAdmin, permission: Permission("nope"), table: table, want: false},
		{name: "empty table", role: roleAdmin, permission: permRead, table: RolePermissions{}, want: false},
		{name: "nil table", role: roleAdmin, permission: permRead, table: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserCan(tt.role, tt.permission, tt.table))
		})
	}
}

func TestUserCanAny(t *testing.T) {
	table := testTable()

	t.Run("empty list is false", func(t *testing.T) {
		assert.False(t, UserCanAny(roleAdmin, nil, table))
		assert.False(t, UserCanAny(roleAdmin, []Permission{}, table))
	})

	t.Run("one match is enough", func(t *testing.T) {
		assert.True(t, UserCanAny(roleUser, []Permission{permDelete, permRead}, table))
	})

	t.Run("no match", func(t *testing.T) {
		assert.False(t, UserCanAny(roleGuest, []Permission{permDelete, permRead}, table))
	})
}

func TestUserCanAll(t *testing.T) {
	table := testTable()

	t.Run("empty list is vacuously true", func(t *testing.T) {
		assert.True(t, UserCanAll(roleGuest, nil, table))
		assert.True(t, UserCanAll(Role("GHOST"), []Permission{}, RolePermissions{}))
	})

	t.Run("all granted", func(t *testing.T) {
		assert.True(t, UserCanAll(roleAdmin, []Permission{permRead, permWrite, permDelete}, table))
	})

	t.Run("one missing", func(t *testing.T) {
		assert.False(t, UserCanAll(roleUser, []Permission{permRead, permDelete}, table))
	})
}

func TestCombinatorsAgreeWithUserCan(t *testing.T) {
	table := testTable()
	perms := []Permission{permRead, permWrite, permDelete, Permission("other")}

	for _, role := range []Role{roleAdmin, roleUser, roleGuest, Role("GHOST")} {
		for i := range perms {
			subset := perms[:i+1]

			wantAll, wantAny := true, false
			for _, p := range subset {
				can := UserCan(role, p, table)
				wantAll = wantAll && can
				wantAny = wantAny || can
			}

			assert.Equal(t, wantAll, UserCanAll(role, subset, table), "all: %s %v", role, subset)
			assert.Equal(t, wantAny, UserCanAny(role, subset, table), "any: %s %v", role, subset)
		}
	}
}

func TestPermissionsFor(t *testing.T) {
	table := testTable()

	assert.Equal(t, []Permission{permRead, permWrite}, table.PermissionsFor(roleUser))
	assert.Empty(t, table.PermissionsFor(Role("GHOST")))

	got := table.PermissionsFor(roleAdmin)
	got[0] = "mutated"
	assert.Equal(t, permRead, table[roleAdmin][0])
}

func TestRoles(t *testing.T) {
	assert.Equal(t, []Role{roleAdmin, roleGuest, roleUser}, testTable().Roles())
	assert.Empty(t, RolePermissions(nil).Roles())
}

func TestValidate(t *testing.T) {
	t.Run("valid table", func(t *testing.T) {
		require.NoError(t, testTable().Validate())
	})

	t.Run("empty role", func(t *testing.T) {
		err := RolePermissions{"": {permRead}}.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTable)
	})

	t.Run("empty permission", func(t *testing.T) {
		err := RolePermissions{roleUser: {permRead, ""}}.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTable)
		assert.Contains(t, err.Error(), "index 1")
	})
}
