package role

import (
	"errors"
	"sync"
)

// UnknownLevel is the level assigned to any role that was never registered.
// It is the lowest possible level, so unknown roles never satisfy a check.
const UnknownLevel = 0

// Hierarchy maps role names onto a total order of integer levels.
// Roles are registered during startup and then frozen; after Freeze the
// table is immutable and every lookup is a read-only map access.
type Hierarchy struct {
	mu        sync.RWMutex
	levels    map[string]int
	adminRole string
	frozen    bool
}

// New creates an empty Hierarchy.
func New() *Hierarchy {
	return &Hierarchy{
		levels: make(map[string]int),
	}
}

// Register adds a role with the given level. Levels must be positive;
// level 0 is reserved for unknown roles.
func (h *Hierarchy) Register(name string, level int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frozen {
		return errors.New("role hierarchy frozen")
	}
	if name == "" {
		return errors.New("role name empty")
	}
	if level <= UnknownLevel {
		return errors.New("role level must be positive")
	}
	if _, exists := h.levels[name]; exists {
		return errors.New("role already registered: " + name)
	}

	h.levels[name] = level
	return nil
}

// MarkAdmin designates the role that grants owner-equivalent access in
// [Hierarchy.IsOwnerOrAdmin]. The role must already be registered.
func (h *Hierarchy) MarkAdmin(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frozen {
		return errors.New("role hierarchy frozen")
	}
	if _, exists := h.levels[name]; !exists {
		return errors.New("admin role not registered: " + name)
	}

	h.adminRole = name
	return nil
}

// Freeze makes the hierarchy immutable. Register and MarkAdmin fail after
// Freeze.
func (h *Hierarchy) Freeze() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frozen = true
}

// LevelOf returns the level of a role. Unknown roles return [UnknownLevel].
func (h *Hierarchy) LevelOf(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.levels[name]
}

// AtLeast reports whether userRole sits at or above requiredRole in the
// hierarchy. It is reflexive: AtLeast(r, r) is always true.
func (h *Hierarchy) AtLeast(userRole, requiredRole string) bool {
	if userRole == requiredRole {
		return true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	userLevel := h.levels[userRole]
	requiredLevel := h.levels[requiredRole]
	if userLevel == UnknownLevel {
		return false
	}

	return userLevel >= requiredLevel
}

// Exact reports whether userRole is one of the allowed roles. An unknown
// user role matches nothing.
func (h *Hierarchy) Exact(userRole string, allowed ...string) bool {
	if h.LevelOf(userRole) == UnknownLevel {
		return false
	}

	for _, candidate := range allowed {
		if userRole == candidate {
			return true
		}
	}
	return false
}

// IsOwnerOrAdmin reports whether the user owns the resource or carries a
// role at or above the marked admin role. With no admin role marked, only
// the owner passes.
func (h *Hierarchy) IsOwnerOrAdmin(userID, resourceOwnerID, userRole string) bool {
	if userID != "" && userID == resourceOwnerID {
		return true
	}

	h.mu.RLock()
	admin := h.adminRole
	h.mu.RUnlock()

	if admin == "" {
		return false
	}
	return h.AtLeast(userRole, admin)
}

// Count returns the number of registered roles.
func (h *Hierarchy) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.levels)
}
