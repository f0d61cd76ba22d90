package roles

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/sirupsen/logrus"
)

type Role string

const (
	Manager      Role = "manager"
	DeliveryCrew Role = "delivery-crew"
)

// Parse accepts the group names used in URLs.
func Parse(s string) (Role, bool) {
	switch Role(s) {
	case Manager, DeliveryCrew:
		return Role(s), true
	}
	return "", false
}

// Set is a caller's resolved role membership.
type Set map[Role]struct{}

func NewSet(rs ...Role) Set {
	s := make(Set, len(rs))
	for _, r := range rs {
		s[r] = struct{}{}
	}
	return s
}

func (s Set) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Store persists role membership with set semantics: Add and Remove are
// no-ops when membership already matches.
type Store interface {
	Members(ctx context.Context, role Role) ([]User, error)
	Add(ctx context.Context, userID int64, role Role) error
	Remove(ctx context.Context, userID int64, role Role) error
	RolesOf(ctx context.Context, userID int64) ([]Role, error)
}

// Users is the external identity store, consulted only for existence.
type Users interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// Directory trusts its caller; authorization happens at the gate.
type Directory struct {
	store Store
	users Users
	log   *logrus.Entry
}

func NewDirectory(store Store, users Users, log *logrus.Entry) *Directory {
	return &Directory{store: store, users: users, log: log.WithField("component", "roles")}
}

func (d *Directory) List(ctx context.Context, role Role) ([]User, error) {
	users, err := d.store.Members(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", role, err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func (d *Directory) Assign(ctx context.Context, userID int64, role Role) error {
	if err := d.mustExist(ctx, userID); err != nil {
		return err
	}
	if err := d.store.Add(ctx, userID, role); err != nil {
		return fmt.Errorf("assign %s: %w", role, err)
	}
	d.log.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("role assigned")
	return nil
}

func (d *Directory) Revoke(ctx context.Context, userID int64, role Role) error {
	if err := d.mustExist(ctx, userID); err != nil {
		return err
	}
	if err := d.store.Remove(ctx, userID, role); err != nil {
		return fmt.Errorf("revoke %s: %w", role, err)
	}
	d.log.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("role revoked")
	return nil
}

// RolesOf satisfies access.RoleResolver.
func (d *Directory) RolesOf(ctx context.Context, userID int64) (Set, error) {
	rs, err := d.store.RolesOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	return NewSet(rs...), nil
}

func (d *Directory) UserExists(ctx context.Context, userID int64) (bool, error) {
	return d.users.UserExists(ctx, userID)
}

func (d *Directory) mustExist(ctx context.Context, userID int64) error {
	ok, err := d.users.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return apperr.ErrUserNotFound
	}
	return nil
}
