package access

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
)

// Caller is the authenticated identity of one request. Its role set is
// resolved lazily by the Gate and then reused for the rest of the request.
type Caller struct {
	ID       int64
	Username string

	mu       sync.Mutex
	roles    roles.Set
	resolved bool
}

func NewCaller(id int64, username string) *Caller {
	return &Caller{ID: id, Username: username}
}

// Is reports membership from the resolved set. It is false until the Gate
// has authorized at least one requirement for this caller.
func (c *Caller) Is(r roles.Role) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roles.Has(r)
}

func (c *Caller) resolve(ctx context.Context, rr RoleResolver) (roles.Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		return c.roles, nil
	}
	set, err := rr.RolesOf(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.roles, c.resolved = set, true
	return set, nil
}

type callerKey struct{}

func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(*Caller)
	return c, ok && c != nil
}
