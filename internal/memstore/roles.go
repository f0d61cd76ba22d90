package memstore

import (
	"context"
	"sort"

	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
)

type Roles struct{ s *Store }

func (r *Roles) Members(_ context.Context, role roles.Role) ([]roles.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []roles.User
	for id := range r.s.members[role] {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Roles) Add(_ context.Context, userID int64, role roles.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set, ok := r.s.members[role]
	if !ok {
		set = map[int64]struct{}{}
		r.s.members[role] = set
	}
	set[userID] = struct{}{}
	return nil
}

func (r *Roles) Remove(_ context.Context, userID int64, role roles.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.members[role], userID)
	return nil
}

func (r *Roles) RolesOf(_ context.Context, userID int64) ([]roles.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []roles.Role
	for role, set := range r.s.members {
		if _, ok := set[userID]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

// Count reports how many users hold role.
func (r *Roles) Count(role roles.Role) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.members[role])
}
