package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/upb/permguard/rbac"
	"gopkg.in/yaml.v3"
)

// roleFile is the on-disk shape of a role table:
//
//	roles:
//	  ADMIN: [post:create, post:delete:any]
//	  USER:  [post:create]
type roleFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadRolePermissions reads and validates a YAML role table
func LoadRolePermissions(path string) (rbac.RolePermissions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role file: %w", err)
	}
	return ParseRolePermissions(data)
}

// ParseRolePermissions decodes a YAML role table. Unknown keys are rejected.
func ParseRolePermissions(data []byte) (rbac.RolePermissions, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file roleFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse role file: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("%w: no roles defined", rbac.ErrInvalidTable)
	}

	table := make(rbac.RolePermissions, len(file.Roles))
	for role, perms := range file.Roles {
		granted := make([]rbac.Permission, 0, len(perms))
		for _, p := range perms {
			granted = append(granted, rbac.Permission(p))
		}
		table[rbac.Role(role)] = granted
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
