package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/permguard/rbac"
)

func TestParseRolePermissions(t *testing.T) {
	t.Run("valid table", func(t *testing.T) {
		table, err := ParseRolePermissions([]byte(`
roles:
  ADMIN:
    - post:create
    - post:delete:any
  USER: [post:create]
  GUEST: []
`))
		require.NoError(t, err)

		assert.Equal(t, []rbac.Role{"ADMIN", "GUEST", "USER"}, table.Roles())
		assert.True(t, rbac.UserCan("ADMIN", "post:delete:any", table))
		assert.True(t, rbac.UserCan("USER", "post:create", table))
		assert.False(t, rbac.UserCan("GUEST", "post:create", table))
	})

	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{name: "empty document", data: ``, errMsg: "failed to parse role file"},
		{name: "no roles", data: `roles: {}`, errMsg: "no roles defined"},
		{name: "empty permission", data: "roles:\n  USER: [\"\"]", errMsg: "empty permission"},
		{name: "unknown key", data: "roles:\n  USER: [a]\nextra: true", errMsg: "failed to parse role file"},
		{name: "wrong shape", data: "roles: [a, b]", errMsg: "failed to parse role file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRolePermissions([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("validation errors wrap the sentinel", func(t *testing.T) {
		_, err := ParseRolePermissions([]byte("roles:\n  USER: [\"\"]"))
		assert.ErrorIs(t, err, rbac.ErrInvalidTable)
	})
}

func TestLoadRolePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  USER: [post:create]\n"), 0o600))

	table, err := LoadRolePermissions(path)
	require.NoError(t, err)
	assert.Equal(t, []rbac.Permission{"post:create"}, table["USER"])

	_, err = LoadRolePermissions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
