package phrases

import (
	"context"
	"database/sql"
)

// PostgresRepo persists phrases in Postgres via database/sql (pgx stdlib driver).
//
// Assumed table:
//
//	CREATE TABLE phrases (
//	    id       UUID PRIMARY KEY,
//	    user_id  INT  NOT NULL,
//	    text     TEXT NOT NULL,
//	    category TEXT NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID int) ([]Phrase, error) {
	const q = `
SELECT id, user_id, text, category
FROM phrases
WHERE user_id = $1
ORDER BY id
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Phrase, 0)
	for rows.Next() {
		var p Phrase
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.Category); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, p Phrase) (Phrase, error) {
	const q = `
INSERT INTO phrases (id, user_id, text, category)
VALUES ($1, $2, $3, $4)
`
	if _, err := r.db.ExecContext(ctx, q, p.ID, p.UserID, p.Text, p.Category); err != nil {
		return Phrase{}, err
	}
	return p, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM phrases WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepo)(nil)
