package menu

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Cache is a read-through cache in front of the catalog. Implementations
// swallow their own errors; a miss is always safe.
//
// A lookup returns the generation it read. The caller hands that same
// generation back when it stores what it loaded, so a load that raced an
// Invalidate is written under a generation nobody reads anymore.
type Cache interface {
	Items(ctx context.Context) ([]MenuItem, Generation, bool)
	StoreItems(ctx context.Context, gen Generation, items []MenuItem)
	Item(ctx context.Context, id int64) (MenuItem, Generation, bool)
	StoreItem(ctx context.Context, gen Generation, it MenuItem)
	Invalidate(ctx context.Context)
}

// Generation identifies one catalog version in a Cache.
type Generation int64

// NoGeneration is returned when the cache could not be read; stores under
// it are dropped.
const NoGeneration Generation = -1

type nopCache struct{}

func (nopCache) Items(context.Context) ([]MenuItem, Generation, bool) {
	return nil, NoGeneration, false
}
func (nopCache) StoreItems(context.Context, Generation, []MenuItem) {}
func (nopCache) Item(context.Context, int64) (MenuItem, Generation, bool) {
	return MenuItem{}, NoGeneration, false
}
func (nopCache) StoreItem(context.Context, Generation, MenuItem) {}
func (nopCache) Invalidate(context.Context)                      {}

type Service struct {
	store Store
	cache Cache
	log   *logrus.Entry
}

// NewService wires the catalog; cache may be nil.
func NewService(store Store, cache Cache, log *logrus.Entry) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	return &Service{store: store, cache: cache, log: log.WithField("component", "menu")}
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	if err := in.validate(true); err != nil {
		return Category{}, err
	}
	c, err := s.store.CreateCategory(ctx, *in.Slug, strings.TrimSpace(*in.Title))
	if err != nil {
		return Category{}, err
	}
	s.log.WithField("category_id", c.ID).Info("category created")
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	if err := in.validate(false); err != nil {
		return Category{}, err
	}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	c, err := s.store.UpdateCategory(ctx, id, in)
	if err != nil {
		return Category{}, err
	}
	s.cache.Invalidate(ctx)
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.log.WithField("category_id", id).Info("category deleted")
	return nil
}

func (s *Service) ListItems(ctx context.Context) ([]MenuItem, error) {
	items, gen, ok := s.cache.Items(ctx)
	if ok {
		return items, nil
	}
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.StoreItems(ctx, gen, items)
	return items, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (MenuItem, error) {
	it, gen, ok := s.cache.Item(ctx, id)
	if ok {
		return it, nil
	}
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return MenuItem{}, err
	}
	s.cache.StoreItem(ctx, gen, it)
	return it, nil
}

func (s *Service) CreateItem(ctx context.Context, in ItemInput) (MenuItem, error) {
	if err := in.validate(true); err != nil {
		return MenuItem{}, err
	}
	trimTitle(&in)
	it, err := s.store.CreateItem(ctx, in)
	if err != nil {
		return MenuItem{}, err
	}
	s.cache.Invalidate(ctx)
	s.log.WithFields(logrus.Fields{"menu_item_id": it.ID, "price": it.Price.String()}).Info("menu item created")
	return it, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, in ItemInput) (MenuItem, error) {
	if err := in.validate(false); err != nil {
		return MenuItem{}, err
	}
	trimTitle(&in)
	it, err := s.store.UpdateItem(ctx, id, in)
	if err != nil {
		return MenuItem{}, err
	}
	s.cache.Invalidate(ctx)
	return it, nil
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.log.WithField("menu_item_id", id).Info("menu item deleted")
	return nil
}

func trimTitle(in *ItemInput) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
}
