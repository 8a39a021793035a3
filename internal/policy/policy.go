// Package policy holds the static role rules for barhub.
//
// Every rule is a pure function of the acting role, the target role or
// owner, and the attempted action. Nothing here touches storage or the
// request pipeline, so the rules are testable in isolation.
package policy

// Role is one of the closed set of role tags carried by principals and
// embedded in tokens.
type Role string

const (
	// RoleDev is the maximally privileged operator role.
	RoleDev Role = "DEV"
	// RoleAdmin manages users and orders but cannot touch DEV accounts.
	RoleAdmin Role = "ADMIN"
	// RoleBartender manages products and sees all orders.
	RoleBartender Role = "BARTENDER"
	// RoleStudent is the default role for new registrations.
	RoleStudent Role = "STUDENT"
)

// rank encodes the partial order DEV > ADMIN > {BARTENDER, STUDENT}.
// BARTENDER and STUDENT share a tier and are incomparable.
var rank = map[Role]int{
	RoleDev:       2,
	RoleAdmin:     1,
	RoleBartender: 0,
	RoleStudent:   0,
}

// Valid reports whether r is a member of the closed role set.
func Valid(r Role) bool {
	_, ok := rank[r]
	return ok
}

// Outranks reports whether a is strictly above b in the role hierarchy.
// Roles on the same tier (including a role against itself) do not
// outrank each other.
func Outranks(a, b Role) bool {
	ra, okA := rank[a]
	rb, okB := rank[b]
	if !okA || !okB {
		return false
	}
	return ra > rb
}

// RoleSet is an immutable membership set used for per-resource
// privileged-role lists.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Privileged sets per resource type, fixed at process start.
var (
	// UserManagers may list, inspect, and delete other principals.
	UserManagers = NewRoleSet(RoleDev, RoleAdmin)
	// OrderManagers see and manage every order, not just their own.
	OrderManagers = NewRoleSet(RoleDev, RoleAdmin, RoleBartender)
	// ProductEditors may create and update products.
	ProductEditors = NewRoleSet(RoleAdmin, RoleBartender)
	// ProductDeleters may remove products.
	ProductDeleters = NewRoleSet(RoleAdmin)
)

// CanAssignRole reports whether actor may grant target to any
// principal. Granting a role strictly above the actor's own is always
// rejected, which blocks escalation through registration or role
// updates.
func CanAssignRole(actor, target Role) bool {
	if !Valid(actor) || !Valid(target) {
		return false
	}
	return !Outranks(target, actor)
}

// CanActOnPrincipal reports whether the actor may read, modify, or
// delete the target principal's record. A principal always may act on
// itself (role mutation is carved out separately by CanMutateRole).
// Otherwise the actor must be a user manager and the target must not
// outrank it: an ADMIN cannot touch a DEV record.
func CanActOnPrincipal(actorID string, actor Role, targetID string, target Role) bool {
	if actorID == targetID {
		return true
	}
	if !UserManagers.Contains(actor) {
		return false
	}
	return !Outranks(target, actor)
}

// CanMutateRole reports whether the actor may change the target
// principal's role to newRole. Self role mutation is rejected
// unconditionally, regardless of the actor's privilege.
func CanMutateRole(actorID string, actor Role, targetID string, target, newRole Role) bool {
	if actorID == targetID {
		return false
	}
	if !CanAssignRole(actor, newRole) {
		return false
	}
	return CanActOnPrincipal(actorID, actor, targetID, target)
}

// CanAccessOwned is the ownership rule shared by all resource types:
// the actor must own the resource or hold a role in the resource's
// privileged set.
func CanAccessOwned(actor Role, actorID, ownerID string, privileged RoleSet) bool {
	if actorID != "" && actorID == ownerID {
		return true
	}
	return privileged.Contains(actor)
}
