package roles

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo stores membership in user_roles and reads identities from users.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Members(ctx context.Context, role Role) ([]User, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT u.id, u.username, u.email
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		WHERE ur.role = $1
		ORDER BY u.id`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) Add(ctx context.Context, userID int64, role Role) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO user_roles(user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING`, userID, string(role))
	return err
}

func (r *Repo) Remove(ctx context.Context, userID int64, role Role) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM user_roles WHERE user_id=$1 AND role=$2`, userID, string(role))
	return err
}

func (r *Repo) RolesOf(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := r.DB.Query(ctx, `SELECT role FROM user_roles WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, Role(s))
	}
	return out, rows.Err()
}

func (r *Repo) UserExists(ctx context.Context, userID int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&ok)
	return ok, err
}
