package model

import "strings"

// Role is the closed set of account roles recognised by the platform.
// It is a named string type rather than a bare string so that the RBAC
// guard can switch over it exhaustively; adding a role forces every
// switch to be revisited.
type Role string

const (
	RoleCommunity     Role = "COMMUNITY"      // community caretaker managing their own patients and rides
	RoleDriver        Role = "DRIVER"         // transport driver assigned to rides
	RoleHealthOfficer Role = "HEALTH_OFFICER" // district health officer with read access over all patients
	RoleExecutive     Role = "EXECUTIVE"      // executive with read access to aggregate reports
	RoleAdmin         Role = "ADMIN"          // platform administrator
	RoleDeveloper     Role = "DEVELOPER"      // developer account with full access
)

// AllRoles lists every valid role.  Used by validation and by tests
// that exercise the full RBAC matrix.
var AllRoles = []Role{
	RoleCommunity, RoleDriver, RoleHealthOfficer,
	RoleExecutive, RoleAdmin, RoleDeveloper,
}

// ParseRole normalizes a raw string and returns the matching Role.
// It is for inbound user input (registration forms, status bodies)
// only; values read back from tokens or the database are canonical
// already and must be checked with Valid instead.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range AllRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether the role is exactly one of the known
// constants.  No trimming or case folding: a token claim that is not
// byte-for-byte canonical was not minted by this service and must not
// authorize anything.
func (r Role) Valid() bool {
	switch r {
	case RoleCommunity, RoleDriver, RoleHealthOfficer,
		RoleExecutive, RoleAdmin, RoleDeveloper:
		return true
	}
	return false
}

// SelfScoped reports whether the role may only touch rows it owns.
// COMMUNITY users manage their own patients and rides; DRIVER users
// act only on rides assigned to them.  Every other role either has a
// read-only surface or bypasses ownership entirely.
func (r Role) SelfScoped() bool {
	switch r {
	case RoleCommunity, RoleDriver:
		return true
	case RoleHealthOfficer, RoleExecutive, RoleAdmin, RoleDeveloper:
		return false
	}
	return true // unknown roles get the most restrictive treatment
}

// BypassesOwnership reports whether the role may act on any row
// regardless of who owns it.
func (r Role) BypassesOwnership() bool {
	switch r {
	case RoleAdmin, RoleDeveloper:
		return true
	case RoleCommunity, RoleDriver, RoleHealthOfficer, RoleExecutive:
		return false
	}
	return false
}
