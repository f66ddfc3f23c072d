package service

import "github.com/vibast-solutions/ms-go-identity/app/entity"

// Operation names a guarded entry point. Transports annotate each route or
// RPC with one so the role policy lives in a single table.
type Operation string

const (
	OpMe             Operation = "me"
	OpLogout         Operation = "logout"
	OpChangePassword Operation = "change_password"
	OpListUsers      Operation = "list_users"
	OpGetUser        Operation = "get_user"
	OpUpdateRole     Operation = "update_role"
	OpDeleteUser     Operation = "delete_user"
)

var requiredRoles = map[Operation][]string{
	OpListUsers:  {entity.RoleAdmin},
	OpGetUser:    {entity.RoleAdmin},
	OpUpdateRole: {entity.RoleAdmin},
	OpDeleteUser: {entity.RoleAdmin},
}

// RequiredRoles returns the roles allowed to call op. An empty result means
// any authenticated principal may call it.
func RequiredRoles(op Operation) []string {
	return requiredRoles[op]
}

func AuthorizeRole(role string, required []string) error {
	if len(required) == 0 {
		return nil
	}
	for _, r := range required {
		if r == role {
			return nil
		}
	}
	return ErrForbidden
}
