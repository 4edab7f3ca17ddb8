package roles

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps role keys to roles. It is passed explicitly to roster
// building and to the engine.
type Registry struct {
	mu    sync.RWMutex
	sides map[Side]SideInfo
	roles map[string]Role
	order []string
}

// NewRegistry builds a registry from sides and roles, validating each one.
func NewRegistry(sides []SideInfo, roles []Role) (*Registry, error) {
	r := &Registry{sides: map[Side]SideInfo{}, roles: map[string]Role{}}
	for _, s := range sides {
		if err := r.RegisterSide(s); err != nil {
			return nil, err
		}
	}
	for _, role := range roles {
		if err := r.Register(role); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry holds the standard sides and roles.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSides(), DefaultRoles(false))
	if err != nil {
		panic(err)
	}
	return r
}

// RegisterSide adds a side.
func (r *Registry) RegisterSide(info SideInfo) error {
	if info.Side == "" || info.VictoryCondition == "" {
		return fmt.Errorf("%w: side needs a name and a victory condition", ErrInvalidRole)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sides[info.Side]; ok {
		return fmt.Errorf("%w: side %s registered twice", ErrInvalidRole, info.Side)
	}
	r.sides[info.Side] = info
	return nil
}

// Register adds a role after checking its capability set.
func (r *Registry) Register(role Role) error {
	if role == nil {
		return fmt.Errorf("%w: nil role", ErrInvalidRole)
	}
	key := role.Key()
	switch {
	case key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidRole)
	case key != strings.ToLower(strings.TrimSpace(key)):
		return fmt.Errorf("%w: key %q must be lower case", ErrInvalidRole, key)
	case role.NightAction() == "":
		return fmt.Errorf("%w: %s has no night action description", ErrInvalidRole, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sides[role.Side()]; !ok {
		return fmt.Errorf("%w: %s belongs to unregistered side %q", ErrInvalidRole, key, role.Side())
	}
	if _, ok := r.roles[key]; ok {
		return fmt.Errorf("%w: %s registered twice", ErrInvalidRole, key)
	}
	r.roles[key] = role
	r.order = append(r.order, key)
	return nil
}

// Lookup returns the role registered under key.
func (r *Registry) Lookup(key string) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[strings.ToLower(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, key)
	}
	return role, nil
}

// Keys returns the role keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Side returns the registered description of s.
func (r *Registry) Side(s Side) (SideInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.sides[s]
	return info, ok
}
