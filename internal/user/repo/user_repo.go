package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/user/entity"
)

// Repo provides data access for the users table using sqlx.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
func (r *Repo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  external_auth_id TEXT UNIQUE NOT NULL,
  email TEXT NOT NULL,
  subscription TEXT NOT NULL DEFAULT 'free',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_external_auth_id ON users(external_auth_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectCols = `id, external_auth_id, email, subscription, created_at`

// Create inserts a new user row and returns the new ID.
func (r *Repo) Create(ctx context.Context, u *entity.User) (int64, error) {
	const q = `INSERT INTO users (external_auth_id, email, subscription, created_at)
		VALUES (:external_auth_id, :email, :subscription, :created_at) RETURNING id`
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	stmt, err := r.db.NamedQueryContext(ctx, q, u)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	if stmt.Next() {
		if err := stmt.Scan(&u.ID); err != nil {
			return 0, err
		}
		return u.ID, nil
	}
	return 0, errors.New("no id returned")
}

// GetByExternalID fetches by external identity id or sql.ErrNoRows.
func (r *Repo) GetByExternalID(ctx context.Context, externalID string) (*entity.User, error) {
	q := `SELECT ` + selectCols + ` FROM users WHERE external_auth_id=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, externalID); err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateByExternalID applies the non-nil fields and returns rows affected.
func (r *Repo) UpdateByExternalID(ctx context.Context, externalID string, email, subscription *string) (int64, error) {
	set := ""
	args := map[string]any{"external_auth_id": externalID}
	if email != nil {
		set += "email = :email"
		args["email"] = *email
	}
	if subscription != nil {
		if set != "" {
			set += ", "
		}
		set += "subscription = :subscription"
		args["subscription"] = *subscription
	}
	if set == "" {
		return 0, errors.New("empty update")
	}

	q := `UPDATE users SET ` + set + ` WHERE external_auth_id = :external_auth_id`
	query, params, err := sqlx.Named(q, args)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), params...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByExternalID removes the row and returns rows affected.
func (r *Repo) DeleteByExternalID(ctx context.Context, externalID string) (int64, error) {
	const q = `DELETE FROM users WHERE external_auth_id=$1`
	res, err := r.db.ExecContext(ctx, q, externalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
