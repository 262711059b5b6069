package auth

import (
	"fmt"
	"strings"
)

// Role is a tenant-scoped staff role.
type Role string

const (
	RoleCashier Role = "CASHIER"
	RoleStaff   Role = "STAFF"
	RoleAdmin   Role = "ADMIN"
	RoleOwner   Role = "OWNER"
)

var roleLevels = map[Role]int{
	RoleCashier: 0,
	RoleStaff:   1,
	RoleAdmin:   2,
	RoleOwner:   3,
}

// Roles lists every role from lowest to highest.
func Roles() []Role {
	return []Role{RoleCashier, RoleStaff, RoleAdmin, RoleOwner}
}

// Level returns the role's rank, or -1 for unknown roles.
func (r Role) Level() int {
	if level, ok := roleLevels[r]; ok {
		return level
	}
	return -1
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Level() >= 0
}

// AtLeast reports whether r ranks at or above min. Unknown roles never qualify.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && min.Valid() && r.Level() >= min.Level()
}

// ParseRole accepts a role name in any case.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}
