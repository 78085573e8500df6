package constants

const (
	Admin = "admin"
	Host  = "host"
)

// ValidRoles is the set of allowed values for users.role.
var ValidRoles = []string{Host, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
