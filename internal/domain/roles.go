// Role hierarchy and permission tables.
//
// Roles form a fixed, ordered hierarchy; the set is closed and the tables
// below are immutable static data. Permissions are cumulative by rank:
// every permission granted to a lower-ranked role is inherited by all
// higher-ranked roles, so an Admin can do everything an Instructor can.
package domain

// Role is the closed set of caller roles, ordered by rank.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// roleRanks fixes the hierarchy: Student=1 < Instructor=2 < Admin=3 <
// SuperAdmin=4. Unknown roles rank 0 and outrank nothing.
var roleRanks = map[Role]int{
	RoleStudent:    1,
	RoleInstructor: 2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Rank returns the role's position in the hierarchy, or 0 for roles outside
// the closed set.
func (r Role) Rank() int { return roleRanks[r] }

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool { return r.Rank() > 0 }

// AtLeast reports whether r ranks at or above required.
func (r Role) AtLeast(required Role) bool {
	return r.Rank() >= required.Rank() && required.Rank() > 0
}

// rolesByRank lists the closed set in ascending rank order. PermissionsFor
// walks it to accumulate inherited grants.
var rolesByRank = [...]Role{RoleStudent, RoleInstructor, RoleAdmin, RoleSuperAdmin}

// rolePermissions maps each role to the permissions introduced at that rank
// (not including inherited ones).
var rolePermissions = map[Role][]string{
	RoleStudent: {
		"course:read",
		"testseries:read",
		"testseries:attempt",
		"enrollment:create",
		"profile:read",
	},
	RoleInstructor: {
		"course:create",
		"course:update",
		"testseries:create",
		"testseries:update",
		"liveclass:host",
	},
	RoleAdmin: {
		"course:delete",
		"testseries:delete",
		"user:list",
		"user:update",
		"payment:read",
	},
	RoleSuperAdmin: {
		"role:assign",
		"platform:configure",
	},
}

// PermissionsFor returns the full (cumulative) permission set for a role:
// its own grants plus everything from lower ranks. Unknown roles get an
// empty set. The returned map is freshly allocated; callers may mutate it.
func PermissionsFor(r Role) map[string]struct{} {
	out := make(map[string]struct{}, 16)
	rank := r.Rank()
	for _, role := range rolesByRank {
		if role.Rank() > rank {
			break
		}
		for _, p := range rolePermissions[role] {
			out[p] = struct{}{}
		}
	}
	return out
}

// PermissionSet converts an explicit permission list (as stored on a user
// record) into a set.
func PermissionSet(perms []string) map[string]struct{} {
	out := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		out[p] = struct{}{}
	}
	return out
}

// Identity is the resolved caller principal, valid for a single request.
// It is built by the auth resolver from the session plus one user-record
// lookup, attached to the request context, and discarded when the request
// ends. Never cached across requests.
type Identity struct {
	ID            string
	Role          Role
	Status        UserStatus
	Permissions   map[string]struct{}
	EmailVerified bool
	PhoneVerified bool
}

// HasPermission reports whether the identity holds the named permission.
func (id *Identity) HasPermission(perm string) bool {
	if id == nil {
		return false
	}
	_, ok := id.Permissions[perm]
	return ok
}
