package auth

import (
	"strings"
	"testing"
)

func TestHasPermission_Admin(t *testing.T) {
	// Admin holds every capability, including the dangerous ones.
	for _, perm := range []Permission{
		PermDoorRead, PermDoorCommand, PermDoorInitialize,
		PermHistoryRead, PermMetricsRead, PermSystemAdmin,
	} {
		if !HasPermission(RoleAdmin, perm) {
			t.Errorf("admin missing %s", perm)
		}
	}
}

func TestHasPermission_Operator(t *testing.T) {
	granted := []Permission{
		PermDoorRead, PermDoorCommand,
		PermHistoryRead, PermMetricsRead,
	}
	denied := []Permission{
		PermDoorInitialize, PermSystemAdmin,
	}

	for _, perm := range granted {
		if !HasPermission(RoleOperator, perm) {
			t.Errorf("operator missing %s", perm)
		}
	}
	for _, perm := range denied {
		if HasPermission(RoleOperator, perm) {
			t.Errorf("operator wrongly granted %s", perm)
		}
	}
}

func TestHasPermission_UnknownRole(t *testing.T) {
	if HasPermission(Role("ghost"), PermDoorRead) {
		t.Error("unknown role was granted a permission")
	}
}

func TestPermissionsForRole(t *testing.T) {
	perms := PermissionsForRole(RoleOperator)
	if len(perms) == 0 {
		t.Fatalf("PermissionsForRole(operator) = %v, want grants", perms)
	}

	// Mutating the returned slice must not leak into the model.
	perms[0] = "tampered"
	if PermissionsForRole(RoleOperator)[0] == "tampered" {
		t.Error("returned slice aliases the internal grant table")
	}
}

func TestPermissionsForRole_UnknownRole(t *testing.T) {
	if perms := PermissionsForRole(Role("ghost")); perms != nil {
		t.Errorf("want nil for an unknown role, got %v", perms)
	}
}

func TestIsValidRole(t *testing.T) {
	if !IsValidRole(RoleOperator) {
		t.Error("operator should be a valid role")
	}
	if !IsValidRole(RoleAdmin) {
		t.Error("admin should be a valid role")
	}
	if IsValidRole(Role("owner")) {
		t.Error("owner should NOT be a valid role")
	}
	if IsValidRole(Role("guest")) {
		t.Error("guest should NOT be a valid role")
	}
}

func TestIsValidUsername(t *testing.T) {
	valid := []string{"alice", "bob_smith", "front-desk", "op.2", "A1", "x"}
	invalid := []string{"", "has space", "not@allowed", "semi;colon", strings.Repeat("x", 65)}

	for _, name := range valid {
		if !IsValidUsername(name) {
			t.Errorf("IsValidUsername(%q) = false, want true", name)
		}
	}
	for _, name := range invalid {
		if IsValidUsername(name) {
			t.Errorf("IsValidUsername(%q) = true, want false", name)
		}
	}
}
