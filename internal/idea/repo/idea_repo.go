package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/idea/entity"
)

// Repo provides data access for the ideas table using sqlx.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// EnsureTable creates the ideas table and its indexes if they do not exist
// (idempotent). Convenience for early development; prefer migrations in
// production.
func (r *Repo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ideas (
  id BIGINT PRIMARY KEY,
  user_id TEXT NOT NULL,
  content TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT 'manual',
  timestamp TIMESTAMPTZ NOT NULL,
  project TEXT,
  theme TEXT,
  emotion TEXT,
  transformed_output TEXT
);
CREATE INDEX IF NOT EXISTS idx_ideas_user_timestamp ON ideas (user_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_ideas_content_fts ON ideas USING GIN (to_tsvector('english', content));
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Insert stores a new idea row. ID and Timestamp are assigned by the caller.
func (r *Repo) Insert(ctx context.Context, i *entity.Idea) error {
	const q = `INSERT INTO ideas (id, user_id, content, source, timestamp)
		VALUES (:id, :user_id, :content, :source, :timestamp)`
	_, err := r.db.NamedExecContext(ctx, q, i)
	return err
}

const selectCols = `id, user_id, content, source, timestamp, project, theme, emotion, transformed_output`

// GetByID fetches one idea scoped to its owner, or sql.ErrNoRows.
func (r *Repo) GetByID(ctx context.Context, id int64, userID string) (*entity.Idea, error) {
	q := `SELECT ` + selectCols + ` FROM ideas WHERE id=$1 AND user_id=$2`
	var row entity.Idea
	if err := r.db.GetContext(ctx, &row, q, id, userID); err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns the owner's ideas newest-first with optional conjunctive
// equality filters. Clauses are appended per present filter; named binding
// keeps placeholders out of the assembly.
func (r *Repo) List(ctx context.Context, userID string, f entity.ListFilter) ([]*entity.Idea, error) {
	q := `SELECT ` + selectCols + ` FROM ideas WHERE user_id = :user_id`
	args := map[string]any{
		"user_id": userID,
		"limit":   f.Limit,
		"skip":    f.Skip,
	}
	if f.Project != "" {
		q += ` AND project = :project`
		args["project"] = f.Project
	}
	if f.Theme != "" {
		q += ` AND theme = :theme`
		args["theme"] = f.Theme
	}
	if f.Emotion != "" {
		q += ` AND emotion = :emotion`
		args["emotion"] = f.Emotion
	}
	q += ` ORDER BY timestamp DESC LIMIT :limit OFFSET :skip`

	query, params, err := sqlx.Named(q, args)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var rows []*entity.Idea
	if err := r.db.SelectContext(ctx, &rows, query, params...); err != nil {
		return nil, err
	}
	return rows, nil
}

// Search runs a full-text relevance match against content, ordered by
// timestamp descending to keep ordering predictable.
func (r *Repo) Search(ctx context.Context, userID, query string) ([]*entity.Idea, error) {
	q := `SELECT ` + selectCols + ` FROM ideas
		WHERE user_id = $1
		AND to_tsvector('english', content) @@ plainto_tsquery('english', $2)
		ORDER BY timestamp DESC`
	var rows []*entity.Idea
	if err := r.db.SelectContext(ctx, &rows, q, userID, query); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update applies the non-nil patch fields to an owner-scoped row and returns
// the number of rows affected. Callers must not pass an empty patch.
func (r *Repo) Update(ctx context.Context, id int64, userID string, p entity.Patch) (int64, error) {
	set := ""
	args := map[string]any{"id": id, "user_id": userID}
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		if set != "" {
			set += ", "
		}
		set += col + " = :" + col
		args[col] = *v
	}
	add("content", p.Content)
	add("project", p.Project)
	add("theme", p.Theme)
	add("emotion", p.Emotion)
	add("transformed_output", p.TransformedOutput)
	if set == "" {
		return 0, fmt.Errorf("empty patch")
	}

	q := `UPDATE ideas SET ` + set + ` WHERE id = :id AND user_id = :user_id`
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

// UpdateEnrichment writes derived fields keyed by id alone. The id comes
// from a just-created, trusted record, so no ownership re-check is needed.
func (r *Repo) UpdateEnrichment(ctx context.Context, id int64, project, theme, emotion string) error {
	const q = `UPDATE ideas SET project=$2, theme=$3, emotion=$4 WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, project, theme, emotion)
	return err
}

// Delete removes an owner-scoped row and returns the rows affected.
func (r *Repo) Delete(ctx context.Context, id int64, userID string) (int64, error) {
	const q = `DELETE FROM ideas WHERE id=$1 AND user_id=$2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAllByOwner removes every idea owned by userID. Used by the user
// directory's cascade on account deletion.
func (r *Repo) DeleteAllByOwner(ctx context.Context, userID string) (int64, error) {
	const q = `DELETE FROM ideas WHERE user_id=$1`
	res, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountAll returns the owner's total idea count.
func (r *Repo) CountAll(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM ideas WHERE user_id=$1`
	var n int
	if err := r.db.GetContext(ctx, &n, q, userID); err != nil {
		return 0, err
	}
	return n, nil
}

// CountSince returns the owner's idea count at or after the given instant.
func (r *Repo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM ideas WHERE user_id=$1 AND timestamp >= $2`
	var n int
	if err := r.db.GetContext(ctx, &n, q, userID, since); err != nil {
		return 0, err
	}
	return n, nil
}

// CountDistinct counts distinct non-null values of an enrichment column.
func (r *Repo) CountDistinct(ctx context.Context, userID, column string) (int, error) {
	switch column {
	case "project", "theme", "emotion":
	default:
		return 0, fmt.Errorf("count distinct: unknown column %q", column)
	}
	q := `SELECT COUNT(DISTINCT ` + column + `) FROM ideas WHERE user_id=$1 AND ` + column + ` IS NOT NULL`
	var n int
	if err := r.db.GetContext(ctx, &n, q, userID); err != nil {
		return 0, err
	}
	return n, nil
}
