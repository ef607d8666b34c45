package role

import "testing"

func buildHierarchy(t *testing.T) *Hierarchy {
	t.Helper()

	h := New()
	for name, level := range map[string]int{
		"viewer": 10,
		"editor": 20,
		"admin":  30,
	} {
		if err := h.Register(name, level); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	if err := h.MarkAdmin("admin"); err != nil {
		t.Fatalf("mark admin: %v", err)
	}
	h.Freeze()
	return h
}

func TestAtLeastOrdering(t *testing.T) {
	h := buildHierarchy(t)

	if !h.AtLeast("admin", "viewer") {
		t.Fatal("admin should satisfy viewer floor")
	}
	if !h.AtLeast("editor", "editor") {
		t.Fatal("AtLeast must be reflexive")
	}
	if h.AtLeast("viewer", "editor") {
		t.Fatal("viewer must not satisfy editor floor")
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	h := buildHierarchy(t)

	if h.LevelOf("ghost") != UnknownLevel {
		t.Fatal("unregistered role should map to UnknownLevel")
	}
	if h.AtLeast("ghost", "viewer") {
		t.Fatal("unknown role must not satisfy any floor")
	}
	if h.Exact("ghost", "ghost") {
		t.Fatal("unknown role must not match even itself in Exact")
	}
}

// Reflexivity must hold even for an unknown role so a service checking
// "same role as mine" never locks itself out.
func TestAtLeastReflexiveForUnknown(t *testing.T) {
	h := buildHierarchy(t)

	if !h.AtLeast("ghost", "ghost") {
		t.Fatal("identical roles must always satisfy AtLeast")
	}
}

func TestExactIgnoresHierarchy(t *testing.T) {
	h := buildHierarchy(t)

	if h.Exact("admin", "viewer", "editor") {
		t.Fatal("Exact must not grant by level, admin is not in the set")
	}
	if !h.Exact("editor", "viewer", "editor") {
		t.Fatal("editor should match the set")
	}
}

func TestIsOwnerOrAdmin(t *testing.T) {
	h := buildHierarchy(t)

	if !h.IsOwnerOrAdmin("u1", "u1", "viewer") {
		t.Fatal("owner must pass regardless of role")
	}
	if !h.IsOwnerOrAdmin("u2", "u1", "admin") {
		t.Fatal("admin must pass on foreign resources")
	}
	if h.IsOwnerOrAdmin("u2", "u1", "editor") {
		t.Fatal("non-owner non-admin must not pass")
	}
	if h.IsOwnerOrAdmin("", "", "viewer") {
		t.Fatal("empty ids must not count as ownership")
	}
}

func TestRegisterAfterFreeze(t *testing.T) {
	h := buildHierarchy(t)

	if err := h.Register("late", 40); err == nil {
		t.Fatal("register after freeze should fail")
	}
	if h.Count() != 3 {
		t.Fatalf("count = %d, want 3", h.Count())
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	h := New()

	if err := h.Register("", 1); err == nil {
		t.Fatal("empty name should be rejected")
	}
	if err := h.Register("zero", 0); err == nil {
		t.Fatal("level 0 is reserved and should be rejected")
	}
	if err := h.Register("dup", 5); err != nil {
		t.Fatalf("register dup: %v", err)
	}
	if err := h.Register("dup", 6); err == nil {
		t.Fatal("duplicate name should be rejected")
	}
}
