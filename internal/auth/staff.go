package auth

import "strings"

// Role is the access level of a staff member. Higher roles inherit the
// permissions of lower ones.
type Role string

const (
	RoleProfessor Role = "professor"
	RoleSecretary Role = "secretary"
	RoleAdmin     Role = "admin"
)

// roleOrder lists roles from least to most privileged.
var roleOrder = []Role{RoleProfessor, RoleSecretary, RoleAdmin}

// Staff is the authenticated operator of a request.
type Staff struct {
	Subject string
	Name    string
	Role    Role
}

// NormalizeRole maps free-form input ("Admin ", "SECRETARY") to a known role.
func NormalizeRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if roleRank(role) == 0 {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role grants the permissions of required.
func RoleAtLeast(role Role, required Role) bool {
	rank := roleRank(role)
	return rank > 0 && rank >= roleRank(required)
}

func roleRank(role Role) int {
	for i, r := range roleOrder {
		if r == role {
			return i + 1
		}
	}
	return 0
}
