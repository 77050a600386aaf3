package domain

import "time"

// Role enumerates caller roles.
type Role string

const (
	RoleClient     Role = "client"
	RoleConsultant Role = "consultant"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleConsultant, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", &EnumError{Field: "role", Value: raw, Allowed: []string{
			string(RoleClient), string(RoleConsultant), string(RoleAdmin),
		}}
	}
	return role, nil
}

// StaffRoles are the roles that may be assigned tickets.
var StaffRoles = []Role{RoleConsultant, RoleAdmin}

// User is an account that can authenticate against the service.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	CreatedAt    time.Time
}
