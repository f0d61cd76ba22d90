package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the catalog persistence contract; Repo (postgres) and
// memstore implement it.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	CreateCategory(ctx context.Context, slug, title string) (Category, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListItems(ctx context.Context) ([]MenuItem, error)
	GetItem(ctx context.Context, id int64) (MenuItem, error)
	CreateItem(ctx context.Context, in ItemInput) (MenuItem, error)
	UpdateItem(ctx context.Context, id int64, in ItemInput) (MenuItem, error)
	DeleteItem(ctx context.Context, id int64) error
}

// Shared select fragment so the cart and order repos nest menu items the
// same way.
const (
	ItemColumns = `m.id, m.title, m.price, m.featured, c.id, c.slug, c.title`
	ItemJoin    = `menu_items m JOIN categories c ON c.id = m.category_id`
)

func ScanTargets(it *MenuItem) []any {
	return []any{&it.ID, &it.Title, &it.Price, &it.Featured, &it.Category.ID, &it.Category.Slug, &it.Category.Title}
}

const fkViolation = "23503"

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == fkViolation
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, slug, title FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `SELECT id, slug, title FROM categories WHERE id=$1`, id).Scan(&c.ID, &c.Slug, &c.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, apperr.ErrNotFound
	}
	return c, err
}

func (r *Repo) CreateCategory(ctx context.Context, slug, title string) (Category, error) {
	c := Category{Slug: slug, Title: title}
	err := r.DB.QueryRow(ctx, `INSERT INTO categories(slug, title) VALUES ($1, $2) RETURNING id`, slug, title).Scan(&c.ID)
	return c, err
}

func (r *Repo) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `
		UPDATE categories
		SET slug = COALESCE($2, slug), title = COALESCE($3, title)
		WHERE id = $1
		RETURNING id, slug, title`, id, in.Slug, in.Title).Scan(&c.ID, &c.Slug, &c.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, apperr.ErrNotFound
	}
	return c, err
}

// DeleteCategory relies on ON DELETE RESTRICT from menu_items.
func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if isFKViolation(err) {
		return apperr.ErrCategoryInUse
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Repo) ListItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+ItemColumns+` FROM `+ItemJoin+` ORDER BY m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuItem
	for rows.Next() {
		var it MenuItem
		if err := rows.Scan(ScanTargets(&it)...); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) GetItem(ctx context.Context, id int64) (MenuItem, error) {
	var it MenuItem
	err := r.DB.QueryRow(ctx, `SELECT `+ItemColumns+` FROM `+ItemJoin+` WHERE m.id=$1`, id).Scan(ScanTargets(&it)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return MenuItem{}, apperr.ErrNotFound
	}
	return it, err
}

func (r *Repo) CreateItem(ctx context.Context, in ItemInput) (MenuItem, error) {
	featured := false
	if in.Featured != nil {
		featured = *in.Featured
	}
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO menu_items(title, price, featured, category_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, *in.Title, in.Price.String(), featured, *in.CategoryID).Scan(&id)
	if isFKViolation(err) {
		return MenuItem{}, UnknownCategory(*in.CategoryID)
	}
	if err != nil {
		return MenuItem{}, err
	}
	return r.GetItem(ctx, id)
}

func (r *Repo) UpdateItem(ctx context.Context, id int64, in ItemInput) (MenuItem, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE menu_items SET
			title = COALESCE($2, title),
			price = COALESCE($3::numeric, price),
			featured = COALESCE($4, featured),
			category_id = COALESCE($5, category_id)
		WHERE id = $1`, id, in.Title, amountArg(in.Price), in.Featured, in.CategoryID)
	if isFKViolation(err) {
		return MenuItem{}, UnknownCategory(*in.CategoryID)
	}
	if err != nil {
		return MenuItem{}, err
	}
	if ct.RowsAffected() == 0 {
		return MenuItem{}, apperr.ErrNotFound
	}
	return r.GetItem(ctx, id)
}

// DeleteItem cascades to cart lines; order lines restrict the delete.
func (r *Repo) DeleteItem(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
	if isFKViolation(err) {
		return apperr.ErrMenuItemInUse
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func amountArg(a *money.Amount) any {
	if a == nil {
		return nil
	}
	return a.String()
}

// UnknownCategory is the validation error for a category_id with no row.
func UnknownCategory(id int64) error {
	return apperr.Invalid("category_id", fmt.Sprintf("invalid pk %d - object does not exist", id))
}
