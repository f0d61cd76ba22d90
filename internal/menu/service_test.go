package menu_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/logging"
	"github.com/ariefcatur/go-restaurant-api.git/internal/memstore"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/ariefcatur/go-restaurant-api.git/internal/money"
)

func ptr[T any](v T) *T { return &v }

func newService(cache menu.Cache) (*menu.Service, *memstore.Store) {
	ms := memstore.New()
	return menu.NewService(ms.Catalog(), cache, logging.Discard()), ms
}

func TestCreateItemValidation(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, menu.CategoryInput{Slug: ptr("mains"), Title: ptr("Mains")})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		in    menu.ItemInput
		field string
	}{
		{"missing title", menu.ItemInput{Price: ptr(money.MustParse("1")), CategoryID: &cat.ID}, "title"},
		{"blank title", menu.ItemInput{Title: ptr("  "), Price: ptr(money.MustParse("1")), CategoryID: &cat.ID}, "title"},
		{"long title", menu.ItemInput{Title: ptr(strings.Repeat("x", 256)), Price: ptr(money.MustParse("1")), CategoryID: &cat.ID}, "title"},
		{"missing price", menu.ItemInput{Title: ptr("Soup"), CategoryID: &cat.ID}, "price"},
		{"negative price", menu.ItemInput{Title: ptr("Soup"), Price: ptr(money.MustParse("-1")), CategoryID: &cat.ID}, "price"},
		{"three places", menu.ItemInput{Title: ptr("Soup"), Price: ptr(money.MustParse("1.005")), CategoryID: &cat.ID}, "price"},
		{"too large", menu.ItemInput{Title: ptr("Soup"), Price: ptr(money.MustParse("10000")), CategoryID: &cat.ID}, "price"},
		{"missing category", menu.ItemInput{Title: ptr("Soup"), Price: ptr(money.MustParse("1"))}, "category_id"},
		{"unknown category", menu.ItemInput{Title: ptr("Soup"), Price: ptr(money.MustParse("1")), CategoryID: ptr(int64(999))}, "category_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, tt.in)
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want key %q", verr.Fields, tt.field)
			}
		})
	}
}

func TestItemCRUD(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	cat, _ := svc.CreateCategory(ctx, menu.CategoryInput{Slug: ptr("drinks"), Title: ptr("Drinks")})

	it, err := svc.CreateItem(ctx, menu.ItemInput{Title: ptr(" Lemonade "), Price: ptr(money.MustParse("3")), CategoryID: &cat.ID})
	if err != nil {
		t.Fatal(err)
	}
	if it.Title != "Lemonade" || it.Price.String() != "3.00" || it.Category.Slug != "drinks" || it.Featured {
		t.Errorf("created %+v", it)
	}

	up, err := svc.UpdateItem(ctx, it.ID, menu.ItemInput{Featured: ptr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if !up.Featured || up.Title != "Lemonade" || !up.Price.Equal(money.MustParse("3")) {
		t.Errorf("partial update touched other fields: %+v", up)
	}

	if _, err := svc.UpdateItem(ctx, 999, menu.ItemInput{Featured: ptr(true)}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteItem(ctx, it.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetItem(ctx, it.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get deleted = %v, want ErrNotFound", err)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()
	cat, _ := svc.CreateCategory(ctx, menu.CategoryInput{Slug: ptr("desserts"), Title: ptr("Desserts")})
	it, err := svc.CreateItem(ctx, menu.ItemInput{Title: ptr("Cake"), Price: ptr(money.MustParse("4.25")), CategoryID: &cat.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteCategory(ctx, cat.ID); !errors.Is(err, apperr.ErrCategoryInUse) {
		t.Fatalf("delete in use = %v, want ErrCategoryInUse", err)
	}
	if _, err := svc.GetCategory(ctx, cat.ID); err != nil {
		t.Errorf("category should persist: %v", err)
	}

	_ = svc.DeleteItem(ctx, it.ID)
	if err := svc.DeleteCategory(ctx, cat.ID); err != nil {
		t.Errorf("delete unused = %v", err)
	}
}

func TestCategoryValidation(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.CreateCategory(context.Background(), menu.CategoryInput{Slug: ptr("bad slug!"), Title: ptr("")})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	if verr.Fields["slug"] == "" || verr.Fields["title"] == "" {
		t.Errorf("fields = %v", verr.Fields)
	}
}

type countingCache struct {
	items       []menu.MenuItem
	hit         bool
	gen         menu.Generation
	stored      []menu.Generation
	invalidated int
}

func (c *countingCache) Items(context.Context) ([]menu.MenuItem, menu.Generation, bool) {
	return c.items, c.gen, c.hit
}
func (c *countingCache) StoreItems(_ context.Context, gen menu.Generation, items []menu.MenuItem) {
	c.stored = append(c.stored, gen)
	if gen == c.gen {
		c.items, c.hit = items, true
	}
}
func (c *countingCache) Item(context.Context, int64) (menu.MenuItem, menu.Generation, bool) {
	return menu.MenuItem{}, c.gen, false
}
func (c *countingCache) StoreItem(context.Context, menu.Generation, menu.MenuItem) {}
func (c *countingCache) Invalidate(context.Context) {
	c.invalidated++
	c.gen++
	c.items, c.hit = nil, false
}

func TestListItemsUsesCacheAndWritesInvalidate(t *testing.T) {
	cache := &countingCache{}
	svc, _ := newService(cache)
	ctx := context.Background()
	cat, _ := svc.CreateCategory(ctx, menu.CategoryInput{Slug: ptr("s"), Title: ptr("S")})
	if _, err := svc.CreateItem(ctx, menu.ItemInput{Title: ptr("A"), Price: ptr(money.MustParse("1")), CategoryID: &cat.ID}); err != nil {
		t.Fatal(err)
	}
	if cache.invalidated != 1 {
		t.Errorf("create should invalidate, got %d", cache.invalidated)
	}

	first, _ := svc.ListItems(ctx)
	if !cache.hit || len(first) != 1 {
		t.Fatalf("list should fill cache: hit=%v items=%d", cache.hit, len(first))
	}
	cache.items = append(cache.items, menu.MenuItem{ID: 42})
	second, _ := svc.ListItems(ctx)
	if len(second) != 2 {
		t.Errorf("second list should come from cache, got %d items", len(second))
	}
}

// slowCatalog runs during once, after the item list has been read from the
// store and before the service gets to cache it.
type slowCatalog struct {
	menu.Store
	during func()
}

func (s *slowCatalog) ListItems(ctx context.Context) ([]menu.MenuItem, error) {
	items, err := s.Store.ListItems(ctx)
	if f := s.during; f != nil {
		s.during = nil
		f()
	}
	return items, err
}

func TestListItemsRacingUpdateIsNotCached(t *testing.T) {
	ctx := context.Background()
	cache := &countingCache{}
	store := &slowCatalog{Store: memstore.New().Catalog()}
	svc := menu.NewService(store, cache, logging.Discard())

	cat, _ := svc.CreateCategory(ctx, menu.CategoryInput{Slug: ptr("mains"), Title: ptr("Mains")})
	it, err := svc.CreateItem(ctx, menu.ItemInput{Title: ptr("Pasta"), Price: ptr(money.MustParse("9.50")), CategoryID: &cat.ID})
	if err != nil {
		t.Fatal(err)
	}
	before := cache.gen

	store.during = func() {
		if _, err := svc.UpdateItem(ctx, it.ID, menu.ItemInput{Price: ptr(money.MustParse("12.00"))}); err != nil {
			t.Errorf("update: %v", err)
		}
	}
	if _, err := svc.ListItems(ctx); err != nil {
		t.Fatal(err)
	}
	if len(cache.stored) != 1 || cache.stored[0] != before {
		t.Fatalf("stored under %v, want [%d]", cache.stored, before)
	}
	if cache.hit {
		t.Fatal("a list loaded before the update must not fill the cache")
	}

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Price.String() != "12.00" {
		t.Errorf("items = %+v, want price 12.00", items)
	}
}
