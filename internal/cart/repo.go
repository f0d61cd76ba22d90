package cart

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// LineColumns / LineJoin let the order repo read cart lines inside its own
// checkout transaction.
const (
	LineColumns = `ct.id, ct.user_id, ct.quantity, ct.unit_price, ct.price, ` + menu.ItemColumns
	LineJoin    = `cart_lines ct JOIN menu_items m ON m.id = ct.menuitem_id JOIN categories c ON c.id = m.category_id`
)

func ScanTargets(l *Line) []any {
	return append([]any{&l.ID, &l.UserID, &l.Quantity, &l.UnitPrice, &l.Price}, menu.ScanTargets(&l.MenuItem)...)
}

func (r *Repo) Lines(ctx context.Context, userID int64) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+LineColumns+` FROM `+LineJoin+` WHERE ct.user_id=$1 ORDER BY ct.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(ScanTargets(&l)...); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add reads the current menu price and upserts in one statement; the
// conflict branch increments quantity and reprices the whole line.
func (r *Repo) Add(ctx context.Context, userID, menuItemID int64, qty int) (Line, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO cart_lines(user_id, menuitem_id, quantity, unit_price, price)
		SELECT $1::bigint, m.id, $3::smallint, m.price, m.price * $3::smallint
		FROM menu_items m WHERE m.id = $2
		ON CONFLICT (user_id, menuitem_id) DO UPDATE SET
			quantity   = cart_lines.quantity + EXCLUDED.quantity,
			unit_price = EXCLUDED.unit_price,
			price      = EXCLUDED.unit_price * (cart_lines.quantity + EXCLUDED.quantity)
		WHERE cart_lines.quantity::int + EXCLUDED.quantity::int <= 32767
		RETURNING id`, userID, menuItemID, qty).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// either the menu item is gone or the merge hit the ceiling
		var exists bool
		if err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM menu_items WHERE id=$1)`, menuItemID).Scan(&exists); err != nil {
			return Line{}, err
		}
		if !exists {
			return Line{}, apperr.ErrNotFound
		}
		return Line{}, ErrQuantityOverflow
	}
	if err != nil {
		return Line{}, err
	}

	var l Line
	err = r.DB.QueryRow(ctx, `SELECT `+LineColumns+` FROM `+LineJoin+` WHERE ct.id=$1`, id).Scan(ScanTargets(&l)...)
	return l, err
}

func (r *Repo) Clear(ctx context.Context, userID int64) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_lines WHERE user_id=$1`, userID)
	return err
}
