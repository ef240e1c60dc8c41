// Package rbac is the single source of role and permission decisions.
//
// The role→capability table, the role satisfaction table and the console
// route table all live here. Navigation, route guards and the session store
// consult these tables and keep no copies of their own.
package rbac

import (
	"strings"
)

// Role is one of the fixed console roles.
type Role string

const (
	Viewer  Role = "VIEWER"
	Staff   Role = "STAFF"
	Manager Role = "MANAGER"
	Admin   Role = "ADMIN"
)

// Roles lists every role from lowest to highest privilege.
var Roles = []Role{Viewer, Staff, Manager, Admin}

// Capability names a gated area of the console.
type Capability string

const (
	CapDashboard Capability = "dashboard"
	CapProducts  Capability = "products"
	CapInventory Capability = "inventory"
	CapOrders    Capability = "orders"
	CapSuppliers Capability = "suppliers"
	CapCustomers Capability = "customers"
	CapReports   Capability = "reports"
	CapUsers     Capability = "users"
	CapSettings  Capability = "settings"
)

var permissions = map[Role][]Capability{
	Viewer:  {CapDashboard, CapProducts, CapInventory},
	Staff:   {CapDashboard, CapProducts, CapInventory, CapOrders},
	Manager: {CapDashboard, CapProducts, CapInventory, CapOrders, CapSuppliers, CapCustomers, CapReports},
	Admin:   {CapDashboard, CapProducts, CapInventory, CapOrders, CapSuppliers, CapCustomers, CapReports, CapUsers, CapSettings},
}

// satisfies[r] lists the required roles that r meets.
var satisfies = map[Role][]Role{
	Viewer:  {Viewer},
	Staff:   {Viewer, Staff},
	Manager: {Viewer, Staff, Manager},
	Admin:   {Viewer, Staff, Manager, Admin},
}

// ParseRole resolves a case-insensitive role name.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := permissions[r]; !ok {
		return "", false
	}
	return r, true
}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	_, ok := permissions[r]
	return ok
}

// Rank orders roles; unknown roles rank below VIEWER.
func (r Role) Rank() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return -1
}

func (r Role) String() string { return string(r) }

// Permissions returns a copy of the capability set of r.
// Unknown roles get nothing.
func Permissions(r Role) []Capability {
	caps := permissions[r]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// Can reports whether r holds capability c.
func Can(r Role, c Capability) bool {
	for _, have := range permissions[r] {
		if have == c {
			return true
		}
	}
	return false
}

// Satisfies reports whether r meets the required role.
func (r Role) Satisfies(required Role) bool {
	for _, ok := range satisfies[r] {
		if ok == required {
			return true
		}
	}
	return false
}

// HasPermission reports whether role meets required. An empty role, which is
// what callers pass when nobody is logged in, never does.
func HasPermission(role, required Role) bool {
	if role == "" {
		return false
	}
	return role.Satisfies(required)
}

// SatisfiesAny reports whether role meets at least one of allowed.
func SatisfiesAny(role Role, allowed []Role) bool {
	for _, required := range allowed {
		if HasPermission(role, required) {
			return true
		}
	}
	return false
}

// AllowedRoles returns the roles holding capability c, highest first.
func AllowedRoles(c Capability) []Role {
	var out []Role
	for i := len(Roles) - 1; i >= 0; i-- {
		if Can(Roles[i], c) {
			out = append(out, Roles[i])
		}
	}
	return out
}

// RoleNames converts roles to their string names.
func RoleNames(roles []Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}
