package domain

// Role grants access to analytics endpoints.
type Role string

const (
	RoleAnalyst Role = "ANALYST"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAnalyst || r == RoleAdmin
}
