package entity

import "strings"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Roles lists every account variant in lookup order.
var Roles = []Role{RoleAdmin, RoleUser}

// ParseRole accepts the lowercase path form ("admin") as well as the stored form ("ADMIN").
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// Path is the lowercase segment used in routes and verification links.
func (r Role) Path() string {
	return strings.ToLower(string(r))
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}
