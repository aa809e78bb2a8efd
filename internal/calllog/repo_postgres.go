package calllog

import (
	"context"
	"database/sql"
	"errors"

	"callassist/pkg/utils"
)

// PostgresRepo persists call logs in Postgres via database/sql (pgx stdlib driver).
//
// Assumed tables:
//
//	CREATE TABLE call_logs (
//	    id             UUID PRIMARY KEY,
//	    user_id        INT         NOT NULL,
//	    start_time     TIMESTAMPTZ NOT NULL,
//	    end_time       TIMESTAMPTZ,
//	    duration       INT,
//	    mode           TEXT        NOT NULL,
//	    language       TEXT        NOT NULL,
//	    has_recording  BOOLEAN     NOT NULL DEFAULT FALSE,
//	    recording_path TEXT
//	);
//
//	CREATE TABLE call_messages (
//	    id        TEXT PRIMARY KEY,
//	    call_id   UUID        NOT NULL REFERENCES call_logs (id),
//	    text      TEXT        NOT NULL,
//	    sender    TEXT        NOT NULL,
//	    method    TEXT,
//	    timestamp TIMESTAMPTZ NOT NULL
//	);
//
// call_messages is insert-only; consider a trigger preventing UPDATE/DELETE.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID int) ([]CallLog, error) {
	const q = `
SELECT id, user_id, start_time, end_time, duration, mode, language, has_recording, recording_path
FROM call_logs
WHERE user_id = $1
ORDER BY start_time DESC
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallLog, 0)
	for rows.Next() {
		l, err := scanCallLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (CallLog, error) {
	const q = `
SELECT id, user_id, start_time, end_time, duration, mode, language, has_recording, recording_path
FROM call_logs
WHERE id = $1
`
	l, err := scanCallLog(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, err
	}
	return l, nil
}

func (r *PostgresRepo) Create(ctx context.Context, l CallLog) (CallLog, error) {
	const q = `
INSERT INTO call_logs (id, user_id, start_time, end_time, duration, mode, language, has_recording, recording_path)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.UserID, l.StartTime, l.EndTime, l.Duration, l.Mode, l.Language, l.HasRecording, l.RecordingPath,
	)
	if err != nil {
		return CallLog{}, err
	}
	return l, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, u CallLogUpdate) (CallLog, error) {
	// COALESCE preserves untouched fields; the service validated the patch.
	const q = `
UPDATE call_logs
SET end_time       = COALESCE($2, end_time),
    duration       = COALESCE($3, duration),
    has_recording  = COALESCE($4, has_recording),
    recording_path = COALESCE($5, recording_path)
WHERE id = $1
RETURNING id, user_id, start_time, end_time, duration, mode, language, has_recording, recording_path
`
	l, err := scanCallLog(r.db.QueryRowContext(ctx, q, id, u.EndTime, u.Duration, u.HasRecording, u.RecordingPath))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, err
	}
	return l, nil
}

func (r *PostgresRepo) ListMessages(ctx context.Context, callID string) ([]CallMessage, error) {
	const q = `
SELECT id, call_id, text, sender, method, timestamp
FROM call_messages
WHERE call_id = $1
ORDER BY timestamp, id
`
	rows, err := r.db.QueryContext(ctx, q, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallMessage, 0)
	for rows.Next() {
		var m CallMessage
		var method sql.NullString
		if err := rows.Scan(&m.ID, &m.CallID, &m.Text, &m.Sender, &method, &m.Timestamp); err != nil {
			return nil, err
		}
		if method.Valid {
			v := Method(method.String)
			m.Method = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AppendMessage inserts one message. The existence check and the insert
// run in a single transaction so a concurrent call-log delete cannot
// slip between them.
func (r *PostgresRepo) AppendMessage(ctx context.Context, m CallMessage) (CallMessage, error) {
	var method *string
	if m.Method != nil {
		v := string(*m.Method)
		method = &v
	}
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM call_logs WHERE id = $1)`, m.CallID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		const q = `
INSERT INTO call_messages (id, call_id, text, sender, method, timestamp)
VALUES ($1, $2, $3, $4, $5, $6)
`
		_, err := tx.ExecContext(ctx, q, m.ID, m.CallID, m.Text, m.Sender, method, m.Timestamp)
		return err
	})
	if err != nil {
		return CallMessage{}, err
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallLog(row rowScanner) (CallLog, error) {
	var l CallLog
	var endTime sql.NullTime
	var duration sql.NullInt64
	var path sql.NullString
	if err := row.Scan(
		&l.ID, &l.UserID, &l.StartTime, &endTime, &duration, &l.Mode, &l.Language, &l.HasRecording, &path,
	); err != nil {
		return CallLog{}, err
	}
	if endTime.Valid {
		t := endTime.Time
		l.EndTime = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		l.Duration = &d
	}
	if path.Valid {
		p := path.String
		l.RecordingPath = &p
	}
	return l, nil
}

var _ Repository = (*PostgresRepo)(nil)
