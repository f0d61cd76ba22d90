// Package memstore keeps every store in process memory behind one mutex.
// It backs STORE_BACKEND=memory and the package tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/money"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
)

type itemRow struct {
	id         int64
	title      string
	price      money.Amount
	featured   bool
	categoryID int64
}

type cartRow struct {
	id         int64
	userID     int64
	menuItemID int64
	qty        int
	unitPrice  money.Amount
	price      money.Amount
}

type orderRow struct {
	id     int64
	userID int64
	crew   *int64
	status orders.Status
	total  money.Amount
	date   time.Time
}

type orderLineRow struct {
	id         int64
	orderID    int64
	menuItemID int64
	qty        int
	unitPrice  money.Amount
	price      money.Amount
}

// Store is the shared state. Catalog, Carts, Roles and Orders are views
// over it implementing the respective store interfaces.
type Store struct {
	mu sync.Mutex

	seq        int64
	users      map[int64]roles.User
	members    map[roles.Role]map[int64]struct{}
	categories map[int64]struct{ slug, title string }
	items      map[int64]*itemRow
	carts      []*cartRow
	orders     map[int64]*orderRow
	lines      []*orderLineRow
}

func New() *Store {
	return &Store{
		users:      map[int64]roles.User{},
		members:    map[roles.Role]map[int64]struct{}{},
		categories: map[int64]struct{ slug, title string }{},
		items:      map[int64]*itemRow{},
		orders:     map[int64]*orderRow{},
	}
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

// AddUser registers an identity. Users are owned by the identity provider;
// this exists for dev seeding and tests.
func (s *Store) AddUser(id int64, username, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = roles.User{ID: id, Username: username, Email: email}
}

func (s *Store) UserExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *Store) Catalog() *Catalog { return &Catalog{s} }
func (s *Store) Carts() *Carts     { return &Carts{s} }
func (s *Store) Roles() *Roles     { return &Roles{s} }
func (s *Store) Orders() *Orders   { return &Orders{s} }
