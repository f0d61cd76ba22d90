// Package access is the single authorization point in front of the catalog,
// cart, role directory and order engine. Handlers state what they need as a
// Requirement; the Gate allows or denies before any mutation happens.
package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/metrics"
	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
	"github.com/sirupsen/logrus"
)

type RoleResolver interface {
	RolesOf(ctx context.Context, userID int64) (roles.Set, error)
}

// OrderParties looks up who owns an order and who is assigned to deliver
// it. It returns apperr.ErrNotFound for unknown orders.
type OrderParties interface {
	Parties(ctx context.Context, orderID int64) (owner int64, crew *int64, err error)
}

type kind int

const (
	anyAuthenticated kind = iota
	hasAnyRole
	ownerOrRole
	assignee
)

type Requirement struct {
	kind    kind
	roles   []roles.Role
	orderID int64
}

func AnyAuthenticated() Requirement { return Requirement{kind: anyAuthenticated} }

func HasRole(r roles.Role) Requirement { return Requirement{kind: hasAnyRole, roles: []roles.Role{r}} }

// HasAnyRole allows callers holding at least one of rs.
func HasAnyRole(rs ...roles.Role) Requirement { return Requirement{kind: hasAnyRole, roles: rs} }

// OwnerOrRole allows the order's owner or any holder of r.
func OwnerOrRole(orderID int64, r roles.Role) Requirement {
	return Requirement{kind: ownerOrRole, roles: []roles.Role{r}, orderID: orderID}
}

// Assignee allows a delivery-crew member who is the order's current
// delivery crew, and nobody else.
func Assignee(orderID int64) Requirement {
	return Requirement{kind: assignee, roles: []roles.Role{roles.DeliveryCrew}, orderID: orderID}
}

func (r Requirement) String() string {
	names := make([]string, len(r.roles))
	for i, role := range r.roles {
		names[i] = string(role)
	}
	switch r.kind {
	case hasAnyRole:
		return "role:" + strings.Join(names, "|")
	case ownerOrRole:
		return "owner-or-role:" + strings.Join(names, "|")
	case assignee:
		return "assignee"
	default:
		return "authenticated"
	}
}

type Gate struct {
	roles   RoleResolver
	orders  OrderParties
	metrics *metrics.Metrics
	log     *logrus.Entry
}

// NewGate wires the gate; m may be nil.
func NewGate(rr RoleResolver, orders OrderParties, m *metrics.Metrics, log *logrus.Entry) *Gate {
	return &Gate{roles: rr, orders: orders, metrics: m, log: log.WithField("component", "access")}
}

// Authorize returns nil to allow. Denials wrap apperr.ErrUnauthenticated or
// apperr.ErrForbidden; an unknown order surfaces as apperr.ErrNotFound.
// Roles are resolved at most once per Caller.
func (g *Gate) Authorize(ctx context.Context, c *Caller, req Requirement) error {
	if c == nil {
		return g.deny(req, nil, apperr.ErrUnauthenticated)
	}
	set, err := c.resolve(ctx, g.roles)
	if err != nil {
		return fmt.Errorf("resolve caller roles: %w", err)
	}

	switch req.kind {
	case anyAuthenticated:
		return nil

	case hasAnyRole:
		if holdsAny(set, req.roles) {
			return nil
		}
		return g.deny(req, c, fmt.Errorf("%w: requires %s", apperr.ErrForbidden, req))

	case ownerOrRole:
		owner, _, err := g.orders.Parties(ctx, req.orderID)
		if err != nil {
			return err
		}
		if owner == c.ID || holdsAny(set, req.roles) {
			return nil
		}
		return g.deny(req, c, fmt.Errorf("%w: not the owner of order %d", apperr.ErrForbidden, req.orderID))

	case assignee:
		if !holdsAny(set, req.roles) {
			return g.deny(req, c, fmt.Errorf("%w: requires %s", apperr.ErrForbidden, roles.DeliveryCrew))
		}
		_, crew, err := g.orders.Parties(ctx, req.orderID)
		if err != nil {
			return err
		}
		if crew != nil && *crew == c.ID {
			return nil
		}
		return g.deny(req, c, fmt.Errorf("%w: order %d is not assigned to you", apperr.ErrForbidden, req.orderID))
	}
	return g.deny(req, c, apperr.ErrForbidden)
}

func (g *Gate) deny(req Requirement, c *Caller, err error) error {
	g.metrics.Denied(req.String())
	f := logrus.Fields{"requirement": req.String()}
	if c != nil {
		f["user_id"] = c.ID
	}
	g.log.WithFields(f).WithError(err).Debug("access denied")
	return err
}

func holdsAny(set roles.Set, want []roles.Role) bool {
	for _, r := range want {
		if set.Has(r) {
			return true
		}
	}
	return false
}
