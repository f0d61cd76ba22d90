package memstore

import (
	"context"
	"sort"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
)

type Catalog struct{ s *Store }

func (c *Catalog) ListCategories(_ context.Context) ([]menu.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]menu.Category, 0, len(c.s.categories))
	for id := range c.s.categories {
		out = append(out, c.s.category(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Catalog) GetCategory(_ context.Context, id int64) (menu.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.categories[id]; !ok {
		return menu.Category{}, apperr.ErrNotFound
	}
	return c.s.category(id), nil
}

func (c *Catalog) CreateCategory(_ context.Context, slug, title string) (menu.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	id := c.s.next()
	c.s.categories[id] = struct{ slug, title string }{slug, title}
	return c.s.category(id), nil
}

func (c *Catalog) UpdateCategory(_ context.Context, id int64, in menu.CategoryInput) (menu.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.s.categories[id]
	if !ok {
		return menu.Category{}, apperr.ErrNotFound
	}
	if in.Slug != nil {
		row.slug = *in.Slug
	}
	if in.Title != nil {
		row.title = *in.Title
	}
	c.s.categories[id] = row
	return c.s.category(id), nil
}

func (c *Catalog) DeleteCategory(_ context.Context, id int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.categories[id]; !ok {
		return apperr.ErrNotFound
	}
	for _, it := range c.s.items {
		if it.categoryID == id {
			return apperr.ErrCategoryInUse
		}
	}
	delete(c.s.categories, id)
	return nil
}

func (c *Catalog) ListItems(_ context.Context) ([]menu.MenuItem, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]menu.MenuItem, 0, len(c.s.items))
	for id := range c.s.items {
		out = append(out, c.s.item(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Catalog) GetItem(_ context.Context, id int64) (menu.MenuItem, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.items[id]; !ok {
		return menu.MenuItem{}, apperr.ErrNotFound
	}
	return c.s.item(id), nil
}

func (c *Catalog) CreateItem(_ context.Context, in menu.ItemInput) (menu.MenuItem, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.categories[*in.CategoryID]; !ok {
		return menu.MenuItem{}, menu.UnknownCategory(*in.CategoryID)
	}
	row := &itemRow{id: c.s.next(), title: *in.Title, price: *in.Price, categoryID: *in.CategoryID}
	if in.Featured != nil {
		row.featured = *in.Featured
	}
	c.s.items[row.id] = row
	return c.s.item(row.id), nil
}

func (c *Catalog) UpdateItem(_ context.Context, id int64, in menu.ItemInput) (menu.MenuItem, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.s.items[id]
	if !ok {
		return menu.MenuItem{}, apperr.ErrNotFound
	}
	if in.CategoryID != nil {
		if _, ok := c.s.categories[*in.CategoryID]; !ok {
			return menu.MenuItem{}, menu.UnknownCategory(*in.CategoryID)
		}
		row.categoryID = *in.CategoryID
	}
	if in.Title != nil {
		row.title = *in.Title
	}
	if in.Price != nil {
		row.price = *in.Price
	}
	if in.Featured != nil {
		row.featured = *in.Featured
	}
	return c.s.item(id), nil
}

// DeleteItem mirrors the SQL foreign keys: order lines restrict, cart
// lines cascade.
func (c *Catalog) DeleteItem(_ context.Context, id int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.items[id]; !ok {
		return apperr.ErrNotFound
	}
	for _, l := range c.s.lines {
		if l.menuItemID == id {
			return apperr.ErrMenuItemInUse
		}
	}
	kept := c.s.carts[:0]
	for _, r := range c.s.carts {
		if r.menuItemID != id {
			kept = append(kept, r)
		}
	}
	c.s.carts = kept
	delete(c.s.items, id)
	return nil
}

// callers hold s.mu

func (s *Store) category(id int64) menu.Category {
	row := s.categories[id]
	return menu.Category{ID: id, Slug: row.slug, Title: row.title}
}

func (s *Store) item(id int64) menu.MenuItem {
	row := s.items[id]
	return menu.MenuItem{
		ID:       row.id,
		Title:    row.title,
		Price:    row.price,
		Featured: row.featured,
		Category: s.category(row.categoryID),
	}
}
