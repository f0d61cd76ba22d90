package orders

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/cart"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the order persistence contract; Repo (postgres) and memstore
// implement it.
type Store interface {
	// Checkout drains userID's cart into a new order in one transaction.
	// build is called with the locked cart lines; ErrEmptyCart if there are none.
	Checkout(ctx context.Context, userID int64, build func([]cart.Line) Order) (Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	Get(ctx context.Context, id int64) (Order, error)
	Parties(ctx context.Context, id int64) (owner int64, crew *int64, err error)
	Update(ctx context.Context, id int64, ch Change) (Order, error)
	// SetStatus only succeeds while crew is the order's delivery crew.
	SetStatus(ctx context.Context, id, crew int64, s Status) (Order, error)
	Delete(ctx context.Context, id int64) error
}

type Repo struct{ DB *pgxpool.Pool }

const (
	orderColumns = `o.id, o.user_id, o.delivery_crew, o.status, o.total, o.date`
	lineColumns  = `ol.id, ol.order_id, ol.quantity, ol.unit_price, ol.price, ` + menu.ItemColumns
	lineJoin     = `order_lines ol JOIN menu_items m ON m.id = ol.menuitem_id JOIN categories c ON c.id = m.category_id`
)

func scanOrder(row pgx.Row, o *Order) error {
	var status int16
	if err := row.Scan(&o.ID, &o.UserID, &o.DeliveryCrew, &status, &o.Total, &o.Date.Time); err != nil {
		return err
	}
	o.Status = Status(status)
	return nil
}

func (r *Repo) Checkout(ctx context.Context, userID int64, build func([]cart.Line) Order) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// serialize checkouts of the same user; a second caller waits here and
	// then sees the drained cart
	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&locked)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Order{}, err
	}

	rows, err := tx.Query(ctx, `SELECT `+cart.LineColumns+` FROM `+cart.LineJoin+`
		WHERE ct.user_id=$1 ORDER BY ct.id FOR UPDATE OF ct`, userID)
	if err != nil {
		return Order{}, err
	}
	var lines []cart.Line
	for rows.Next() {
		var l cart.Line
		if err := rows.Scan(cart.ScanTargets(&l)...); err != nil {
			rows.Close()
			return Order{}, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Order{}, err
	}
	if len(lines) == 0 {
		return Order{}, apperr.ErrEmptyCart
	}

	o := build(lines)
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, delivery_crew, status, total, date)
		VALUES ($1, NULL, $2, $3, $4)
		RETURNING id`, o.UserID, int16(o.Status), o.Total, o.Date.Time).Scan(&o.ID)
	if err != nil {
		return Order{}, err
	}

	for i := range o.Lines {
		l := &o.Lines[i]
		l.OrderID = o.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_lines(order_id, menuitem_id, quantity, unit_price, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`, o.ID, l.MenuItem.ID, l.Quantity, l.UnitPrice, l.Price).Scan(&l.ID)
		if err != nil {
			return Order{}, err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id=$1`, userID); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Order, error) {
	var (
		where []string
		args  []any
	)
	if f.Owner != nil {
		args = append(args, *f.Owner)
		where = append(where, `o.user_id = $`+strconv.Itoa(len(args)))
	}
	if f.DeliveryCrew != nil {
		args = append(args, *f.DeliveryCrew)
		where = append(where, `o.delivery_crew = $`+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + orderColumns + ` FROM orders o`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY o.id`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var out []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id=$1`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, apperr.ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	list := []Order{o}
	if err := r.attachLines(ctx, list); err != nil {
		return Order{}, err
	}
	return list[0], nil
}

func (r *Repo) Parties(ctx context.Context, id int64) (int64, *int64, error) {
	var (
		owner int64
		crew  *int64
	)
	err := r.DB.QueryRow(ctx, `SELECT user_id, delivery_crew FROM orders WHERE id=$1`, id).Scan(&owner, &crew)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, apperr.ErrNotFound
	}
	return owner, crew, err
}

func (r *Repo) Update(ctx context.Context, id int64, ch Change) (Order, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET
			delivery_crew = CASE WHEN $2::boolean THEN $3::bigint ELSE delivery_crew END,
			status = COALESCE($4::smallint, status)
		WHERE id = $1`, id, ch.SetDeliveryCrew, ch.DeliveryCrew, statusArg(ch.Status))
	if isFKViolation(err) {
		return Order{}, apperr.ErrUserNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if ct.RowsAffected() == 0 {
		return Order{}, apperr.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *Repo) SetStatus(ctx context.Context, id, crew int64, s Status) (Order, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$3 WHERE id=$1 AND delivery_crew=$2`, id, crew, int16(s))
	if err != nil {
		return Order{}, err
	}
	if ct.RowsAffected() == 0 {
		if _, _, err := r.Parties(ctx, id); err != nil {
			return Order{}, err
		}
		return Order{}, apperr.ErrForbidden
	}
	return r.Get(ctx, id)
}

// Delete cascades to order_lines.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Repo) attachLines(ctx context.Context, list []Order) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	idx := make(map[int64]int, len(list))
	for i := range list {
		ids[i] = list[i].ID
		idx[list[i].ID] = i
		list[i].Lines = []Line{}
	}
	rows, err := r.DB.Query(ctx, `SELECT `+lineColumns+` FROM `+lineJoin+`
		WHERE ol.order_id = ANY($1) ORDER BY ol.order_id, ol.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		targets := append([]any{&l.ID, &l.OrderID, &l.Quantity, &l.UnitPrice, &l.Price}, menu.ScanTargets(&l.MenuItem)...)
		if err := rows.Scan(targets...); err != nil {
			return err
		}
		i := idx[l.OrderID]
		list[i].Lines = append(list[i].Lines, l)
	}
	return rows.Err()
}

func statusArg(s *Status) any {
	if s == nil {
		return nil
	}
	return int16(*s)
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
