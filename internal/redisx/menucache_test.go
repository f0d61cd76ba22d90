package redisx_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-restaurant-api.git/internal/logging"
	"github.com/ariefcatur/go-restaurant-api.git/internal/memstore"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/ariefcatur/go-restaurant-api.git/internal/money"
	"github.com/ariefcatur/go-restaurant-api.git/internal/redisx"
)

func newCache(t *testing.T) (*redisx.MenuCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	return redisx.NewMenuCache(rdb, time.Minute, logging.Discard()), mr
}

func pasta(price string) menu.MenuItem {
	return menu.MenuItem{
		ID:       7,
		Title:    "Pasta",
		Price:    money.MustParse(price),
		Category: menu.Category{ID: 1, Slug: "mains", Title: "Mains"},
	}
}

func TestMenuCacheItems(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	_, gen, ok := c.Items(ctx)
	if ok || gen != 0 {
		t.Fatalf("empty cache: ok=%v gen=%d", ok, gen)
	}
	c.StoreItems(ctx, gen, []menu.MenuItem{pasta("9.50")})

	items, gen2, ok := c.Items(ctx)
	if !ok || gen2 != gen {
		t.Fatalf("after store: ok=%v gen=%d", ok, gen2)
	}
	if len(items) != 1 || items[0].Price.String() != "9.50" || items[0].Category.Slug != "mains" {
		t.Errorf("items = %+v", items)
	}

	c.Invalidate(ctx)
	if _, gen3, ok := c.Items(ctx); ok || gen3 != gen+1 {
		t.Errorf("after invalidate: ok=%v gen=%d", ok, gen3)
	}

	c.StoreItems(ctx, gen+1, []menu.MenuItem{pasta("9.50")})
	mr.FastForward(2 * time.Minute)
	if _, _, ok := c.Items(ctx); ok {
		t.Error("entry should expire with the ttl")
	}
}

func TestMenuCacheItem(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	_, gen, ok := c.Item(ctx, 7)
	if ok {
		t.Fatal("empty cache should miss")
	}
	c.StoreItem(ctx, gen, pasta("9.50"))
	it, _, ok := c.Item(ctx, 7)
	if !ok || it.Title != "Pasta" {
		t.Errorf("Item = %+v, %v", it, ok)
	}
	if _, _, ok := c.Item(ctx, 8); ok {
		t.Error("other id should miss")
	}
}

func TestMenuCacheStoreAfterInvalidateIsNeverRead(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	_, listGen, _ := c.Items(ctx)
	_, itemGen, _ := c.Item(ctx, 7)
	c.Invalidate(ctx)
	c.StoreItems(ctx, listGen, []menu.MenuItem{pasta("9.50")})
	c.StoreItem(ctx, itemGen, pasta("9.50"))

	if items, _, ok := c.Items(ctx); ok {
		t.Errorf("stale list served: %+v", items)
	}
	if it, _, ok := c.Item(ctx, 7); ok {
		t.Errorf("stale item served: %+v", it)
	}
}

func TestMenuCacheRedisDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	mr.Close()

	_, gen, ok := c.Items(ctx)
	if ok || gen != menu.NoGeneration {
		t.Fatalf("ok=%v gen=%d, want miss with NoGeneration", ok, gen)
	}
	c.StoreItems(ctx, gen, []menu.MenuItem{pasta("9.50")})
	c.Invalidate(ctx)
}

func TestMenuCacheStoreWithoutGenerationIsDropped(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	c.StoreItems(ctx, menu.NoGeneration, []menu.MenuItem{pasta("9.50")})
	c.StoreItem(ctx, menu.NoGeneration, pasta("9.50"))
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
}

// updateAfterRead applies update once, right after the catalog list was read
// and before the service caches it.
type updateAfterRead struct {
	menu.Store
	update func()
}

func (u *updateAfterRead) ListItems(ctx context.Context) ([]menu.MenuItem, error) {
	items, err := u.Store.ListItems(ctx)
	if f := u.update; f != nil {
		u.update = nil
		f()
	}
	return items, err
}

func TestMenuServiceUpdateDuringLoad(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	store := &updateAfterRead{Store: memstore.New().Catalog()}
	svc := menu.NewService(store, c, logging.Discard())

	cat, err := svc.CreateCategory(ctx, menu.CategoryInput{Slug: ptr("mains"), Title: ptr("Mains")})
	if err != nil {
		t.Fatal(err)
	}
	it, err := svc.CreateItem(ctx, menu.ItemInput{Title: ptr("Pasta"), Price: ptr(money.MustParse("9.50")), CategoryID: &cat.ID})
	if err != nil {
		t.Fatal(err)
	}

	store.update = func() {
		if _, err := svc.UpdateItem(ctx, it.ID, menu.ItemInput{Price: ptr(money.MustParse("12.00"))}); err != nil {
			t.Errorf("update: %v", err)
		}
	}
	if _, err := svc.ListItems(ctx); err != nil {
		t.Fatal(err)
	}

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Price.String() != "12.00" {
		t.Fatalf("items = %+v, want price 12.00 once the update committed", items)
	}
	got, err := svc.GetItem(ctx, it.ID)
	if err != nil || got.Price.String() != "12.00" {
		t.Errorf("GetItem = %+v, %v", got, err)
	}
}

func ptr[T any](v T) *T { return &v }
