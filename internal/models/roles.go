package models

// Role names an access level carried in tokens and stored on users.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleAdmin:
		return true
	}
	return false
}
