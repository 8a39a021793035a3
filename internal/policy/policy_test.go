package policy

import "testing"

func TestOutranks(t *testing.T) {
	cases := []struct {
		a, b Role
		want bool
	}{
		{RoleDev, RoleAdmin, true},
		{RoleDev, RoleBartender, true},
		{RoleDev, RoleStudent, true},
		{RoleAdmin, RoleBartender, true},
		{RoleAdmin, RoleStudent, true},
		{RoleAdmin, RoleDev, false},
		{RoleBartender, RoleStudent, false},
		{RoleStudent, RoleBartender, false},
		{RoleDev, RoleDev, false},
		{RoleStudent, RoleStudent, false},
		{Role("ROOT"), RoleStudent, false},
	}

	for _, tc := range cases {
		if got := Outranks(tc.a, tc.b); got != tc.want {
			t.Errorf("Outranks(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCanAssignRole(t *testing.T) {
	cases := []struct {
		actor, target Role
		want          bool
	}{
		{RoleAdmin, RoleDev, false},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleBartender, true},
		{RoleAdmin, RoleStudent, true},
		{RoleDev, RoleDev, true},
		{RoleStudent, RoleDev, false},
		{RoleStudent, RoleAdmin, false},
		{RoleBartender, RoleStudent, true},
		{RoleAdmin, Role("SUPERUSER"), false},
	}

	for _, tc := range cases {
		if got := CanAssignRole(tc.actor, tc.target); got != tc.want {
			t.Errorf("CanAssignRole(%s, %s) = %v, want %v", tc.actor, tc.target, got, tc.want)
		}
	}
}

func TestCanActOnPrincipal(t *testing.T) {
	if !CanActOnPrincipal("u1", RoleStudent, "u1", RoleStudent) {
		t.Error("a principal must be able to act on its own record")
	}
	if CanActOnPrincipal("u1", RoleStudent, "u2", RoleStudent) {
		t.Error("a student must not act on another student's record")
	}
	if CanActOnPrincipal("u1", RoleBartender, "u2", RoleStudent) {
		t.Error("bartenders are not user managers")
	}
	if !CanActOnPrincipal("u1", RoleAdmin, "u2", RoleStudent) {
		t.Error("an admin must be able to act on a student's record")
	}
	if !CanActOnPrincipal("u1", RoleAdmin, "u2", RoleAdmin) {
		t.Error("an admin must be able to act on another admin's record")
	}
	if CanActOnPrincipal("u1", RoleAdmin, "u2", RoleDev) {
		t.Error("an admin must not act on a DEV record")
	}
	if !CanActOnPrincipal("u1", RoleDev, "u2", RoleDev) {
		t.Error("a DEV must be able to act on another DEV record")
	}
}

func TestCanMutateRole(t *testing.T) {
	// Self role mutation is blocked regardless of privilege.
	for _, r := range []Role{RoleDev, RoleAdmin, RoleBartender, RoleStudent} {
		if CanMutateRole("u1", r, "u1", r, RoleStudent) {
			t.Errorf("%s must not mutate its own role", r)
		}
	}

	// Escalation above the actor's own role is blocked.
	if CanMutateRole("u1", RoleAdmin, "u2", RoleStudent, RoleDev) {
		t.Error("an admin must not promote anyone to DEV")
	}

	// Privileged target shields: an admin cannot demote a DEV.
	if CanMutateRole("u1", RoleAdmin, "u2", RoleDev, RoleStudent) {
		t.Error("an admin must not change a DEV's role")
	}

	if !CanMutateRole("u1", RoleAdmin, "u2", RoleStudent, RoleBartender) {
		t.Error("an admin must be able to promote a student to bartender")
	}
	if !CanMutateRole("u1", RoleDev, "u2", RoleStudent, RoleAdmin) {
		t.Error("a DEV must be able to promote a student to admin")
	}
}

func TestCanAccessOwned(t *testing.T) {
	if !CanAccessOwned(RoleStudent, "u1", "u1", OrderManagers) {
		t.Error("owner access must be granted")
	}
	if CanAccessOwned(RoleStudent, "u1", "u2", OrderManagers) {
		t.Error("a student must not access another student's order")
	}
	if !CanAccessOwned(RoleBartender, "u1", "u2", OrderManagers) {
		t.Error("a bartender must access any order")
	}
	if CanAccessOwned(RoleStudent, "", "", UserManagers) {
		t.Error("empty ids must not match as ownership")
	}
}
