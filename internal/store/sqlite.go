package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTime is the stored timestamp layout. Fixed width UTC text sorts in
// time order.
const sqliteTime = "2006-01-02 15:04:05.000000"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	content TEXT NOT NULL,
	qr_type TEXT NOT NULL,
	label TEXT,
	style_json TEXT NOT NULL,
	thumbnail TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);

CREATE TABLE IF NOT EXISTS templates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	style_json TEXT NOT NULL,
	preview TEXT,
	is_default INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
`

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLite{db: db, now: time.Now}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, wrap("create schema", err)
	}
	return s, nil
}

func (s *SQLite) stamp() string {
	return s.now().UTC().Format(sqliteTime)
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }

const sqliteHistoryColumns = `id, content, qr_type, label, style_json, thumbnail, created_at, updated_at`

func (s *SQLite) ListHistory(ctx context.Context, q HistoryQuery) ([]HistoryItem, error) {
	q = q.Normalize()

	var (
		rows *sql.Rows
		err  error
	)
	if q.Search != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+sqliteHistoryColumns+`
			FROM history
			WHERE content LIKE ? ESCAPE '\' OR label LIKE ? ESCAPE '\'
			ORDER BY created_at DESC, id DESC
			LIMIT ? OFFSET ?`,
			likePattern(q.Search), likePattern(q.Search), q.Limit, q.Offset)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+sqliteHistoryColumns+`
			FROM history
			ORDER BY created_at DESC, id DESC
			LIMIT ? OFFSET ?`,
			q.Limit, q.Offset)
	}
	if err != nil {
		return nil, wrap("list history", err)
	}
	defer rows.Close()

	items := []HistoryItem{}
	for rows.Next() {
		var (
			it               HistoryItem
			label, thumb     sql.NullString
			created, updated string
		)
		if err := rows.Scan(&it.ID, &it.Content, &it.QRType, &label, &it.StyleJSON, &thumb, &created, &updated); err != nil {
			return nil, wrap("scan history", err)
		}
		it.Label = nullString(label)
		it.Thumbnail = nullString(thumb)
		if it.CreatedAt, err = parseSQLiteTime(created); err != nil {
			return nil, wrap("scan history", err)
		}
		if it.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
			return nil, wrap("scan history", err)
		}
		items = append(items, it)
	}
	return items, wrap("list history", rows.Err())
}

func (s *SQLite) CountHistory(ctx context.Context, search string) (int64, error) {
	var n int64
	var err error
	if search = strings.TrimSpace(search); search != "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM history WHERE content LIKE ? ESCAPE '\' OR label LIKE ? ESCAPE '\'`,
			likePattern(search), likePattern(search)).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n)
	}
	return n, wrap("count history", err)
}

func (s *SQLite) SaveHistory(ctx context.Context, item NewHistoryItem) (int64, error) {
	ts := s.stamp()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO history (content, qr_type, label, style_json, thumbnail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Content, item.QRType, item.Label, item.StyleJSON, item.Thumbnail, ts, ts)
	if err != nil {
		return 0, wrap("save history", err)
	}
	id, err := res.LastInsertId()
	return id, wrap("save history", err)
}

func (s *SQLite) DeleteHistory(ctx context.Context, id int64) (bool, error) {
	n, err := s.exec(ctx, `DELETE FROM history WHERE id = ?`, id)
	return n > 0, wrap("delete history", err)
}

func (s *SQLite) ClearHistory(ctx context.Context) (int64, error) {
	n, err := s.exec(ctx, `DELETE FROM history`)
	return n, wrap("clear history", err)
}

const sqliteTemplateColumns = `id, name, style_json, preview, is_default, created_at`

func (s *SQLite) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteTemplateColumns+`
		FROM templates
		ORDER BY is_default DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, wrap("list templates", err)
	}
	defer rows.Close()

	out := []Template{}
	for rows.Next() {
		t, err := scanSQLiteTemplate(rows)
		if err != nil {
			return nil, wrap("scan template", err)
		}
		out = append(out, *t)
	}
	return out, wrap("list templates", rows.Err())
}

func (s *SQLite) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteTemplateColumns+` FROM templates WHERE id = ?`, id)
	t, err := scanSQLiteTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: template %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get template", err)
	}
	return t, nil
}

func (s *SQLite) SaveTemplate(ctx context.Context, t NewTemplate) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if t.IsDefault {
			if _, err := tx.ExecContext(ctx, `UPDATE templates SET is_default = 0 WHERE is_default <> 0`); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO templates (name, style_json, preview, is_default, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			t.Name, t.StyleJSON, t.Preview, t.IsDefault, s.stamp())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, wrap("save template", err)
}

func (s *SQLite) UpdateTemplate(ctx context.Context, id int64, t NewTemplate) (bool, error) {
	var found bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE templates SET name = ?, style_json = ?, preview = ?, is_default = ?
			WHERE id = ?`,
			t.Name, t.StyleJSON, t.Preview, t.IsDefault, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return err
		}
		found = true
		if t.IsDefault {
			_, err = tx.ExecContext(ctx, `UPDATE templates SET is_default = 0 WHERE id <> ?`, id)
		}
		return err
	})
	return found, wrap("update template", err)
}

func (s *SQLite) DeleteTemplate(ctx context.Context, id int64) (bool, error) {
	n, err := s.exec(ctx, `DELETE FROM templates WHERE id = ?`, id)
	return n > 0, wrap("delete template", err)
}

// SetDefaultTemplate marks id as the default. An unknown id leaves the
// current default untouched.
func (s *SQLite) SetDefaultTemplate(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE templates SET is_default = 1 WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return err
		}
		found = true
		_, err = tx.ExecContext(ctx, `UPDATE templates SET is_default = 0 WHERE id <> ?`, id)
		return err
	})
	return found, wrap("set default template", err)
}

func (s *SQLite) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// inTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTemplate(row rowScanner) (*Template, error) {
	var (
		t       Template
		preview sql.NullString
		created string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.StyleJSON, &preview, &t.IsDefault, &created); err != nil {
		return nil, err
	}
	t.Preview = nullString(preview)
	var err error
	if t.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return nil, err
	}
	return &t, nil
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(sqliteTime, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
