package guard

import (
	"fmt"
	"reflect"

	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/session"
)

// Ownership fields in priority order. Structs are matched on the Go field name,
// maps on the key.
var ownershipFields = []struct {
	field string
	key   string
}{
	{field: "SubmittedByUserID", key: "submittedByUserId"},
	{field: "UserID", key: "userId"},
	{field: "OwnerID", key: "ownerId"},
}

// CheckPermission reports whether the session's role grants permission
// under the default Store's table.
func CheckPermission(s *session.Session, permission rbac.Permission) bool {
	return defaultStore.CheckPermission(s, permission)
}

// CheckPermission reports whether the session's role grants permission.
// A session without a user is granted nothing.
func (s *Store) CheckPermission(sess *session.Session, permission rbac.Permission) bool {
	st := s.mustSnapshot()
	if sess == nil || sess.User == nil {
		return false
	}
	return rbac.UserCan(sess.User.Role, permission, st.config.RolePermissions)
}

// CheckOwnership reports whether resource belongs to the session's user.
//
// The first present of SubmittedByUserID, UserID, OwnerID (struct fields) or
// submittedByUserId, userId, ownerId (map keys) is compared with the user ID.
// Nil pointers and nil map values count as absent. Fields of other types are
// compared through fmt.Stringer, so uuid.UUID works. A resource exposing none
// of the fields is not owned.
func CheckOwnership(resource any, s *session.Session) bool {
	userID := s.UserID()
	if userID == "" {
		return false
	}
	owner, ok := ownerOf(resource)
	if !ok {
		return false
	}
	return owner == userID
}

// CheckResourceState returns predicate(resource) unchanged.
func CheckResourceState[T any](resource T, predicate func(T) bool) bool {
	return predicate(resource)
}

func ownerOf(resource any) (string, bool) {
	if resource == nil {
		return "", false
	}

	v := reflect.ValueOf(resource)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return "", false
		}
		for _, f := range ownershipFields {
			val := v.MapIndex(reflect.ValueOf(f.key).Convert(v.Type().Key()))
			if !val.IsValid() {
				continue
			}
			if id, ok := identifier(val); ok {
				return id, true
			}
		}
	case reflect.Struct:
		for _, f := range ownershipFields {
			val := v.FieldByName(f.field)
			if !val.IsValid() || !val.CanInterface() {
				continue
			}
			if id, ok := identifier(val); ok {
				return id, true
			}
		}
	}
	return "", false
}

// identifier renders v as a string ID. ok is false for nil values.
func identifier(v reflect.Value) (string, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
		v = v.Elem()
	}

	if v.Kind() == reflect.String {
		return v.String(), true
	}
	if v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
	}
	return fmt.Sprint(v.Interface()), true
}
