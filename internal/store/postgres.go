package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS history (
	id BIGSERIAL PRIMARY KEY,
	content TEXT NOT NULL,
	qr_type TEXT NOT NULL,
	label TEXT,
	style_json TEXT NOT NULL,
	thumbnail TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);

CREATE TABLE IF NOT EXISTS templates (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	style_json TEXT NOT NULL,
	preview TEXT,
	is_default BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool using cfg and ensures the schema.
func OpenPostgres(ctx context.Context, cfg Config) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgres(ctx, pool)
}

// NewPostgres wraps an existing pool and ensures the schema.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, wrap("create schema", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

const pgHistoryColumns = `id, content, qr_type, label, style_json, thumbnail, created_at, updated_at`

func (p *Postgres) ListHistory(ctx context.Context, q HistoryQuery) ([]HistoryItem, error) {
	q = q.Normalize()

	var (
		rows pgx.Rows
		err  error
	)
	if q.Search != "" {
		rows, err = p.pool.Query(ctx, `
			SELECT `+pgHistoryColumns+`
			FROM history
			WHERE content ILIKE $1 OR label ILIKE $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`,
			likePattern(q.Search), q.Limit, q.Offset)
	} else {
		rows, err = p.pool.Query(ctx, `
			SELECT `+pgHistoryColumns+`
			FROM history
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2`,
			q.Limit, q.Offset)
	}
	if err != nil {
		return nil, wrap("list history", err)
	}

	items, err := pgx.CollectRows(rows, scanHistoryRow)
	if err != nil {
		return nil, wrap("list history", err)
	}
	if items == nil {
		items = []HistoryItem{}
	}
	return items, nil
}

func (p *Postgres) CountHistory(ctx context.Context, search string) (int64, error) {
	var n int64
	var err error
	if search = strings.TrimSpace(search); search != "" {
		err = p.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM history WHERE content ILIKE $1 OR label ILIKE $1`,
			likePattern(search)).Scan(&n)
	} else {
		err = p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM history`).Scan(&n)
	}
	return n, wrap("count history", err)
}

func (p *Postgres) SaveHistory(ctx context.Context, item NewHistoryItem) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO history (content, qr_type, label, style_json, thumbnail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		item.Content, item.QRType, item.Label, item.StyleJSON, item.Thumbnail).Scan(&id)
	return id, wrap("save history", err)
}

func (p *Postgres) DeleteHistory(ctx context.Context, id int64) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM history WHERE id = $1`, id)
	if err != nil {
		return false, wrap("delete history", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) ClearHistory(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, wrap("clear history", err)
	}
	return tag.RowsAffected(), nil
}

const pgTemplateColumns = `id, name, style_json, preview, is_default, created_at`

func (p *Postgres) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+pgTemplateColumns+`
		FROM templates
		ORDER BY is_default DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, wrap("list templates", err)
	}

	out, err := pgx.CollectRows(rows, scanTemplateRow)
	if err != nil {
		return nil, wrap("list templates", err)
	}
	if out == nil {
		out = []Template{}
	}
	return out, nil
}

func (p *Postgres) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgTemplateColumns+` FROM templates WHERE id = $1`, id)
	if err != nil {
		return nil, wrap("get template", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTemplateRow)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store: template %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get template", err)
	}
	return &t, nil
}

func (p *Postgres) SaveTemplate(ctx context.Context, t NewTemplate) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if t.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE templates SET is_default = FALSE WHERE is_default`); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
			INSERT INTO templates (name, style_json, preview, is_default)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			t.Name, t.StyleJSON, t.Preview, t.IsDefault).Scan(&id)
	})
	return id, wrap("save template", err)
}

func (p *Postgres) UpdateTemplate(ctx context.Context, id int64, t NewTemplate) (bool, error) {
	var found bool
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE templates SET name = $1, style_json = $2, preview = $3, is_default = $4
			WHERE id = $5`,
			t.Name, t.StyleJSON, t.Preview, t.IsDefault, id)
		if err != nil || tag.RowsAffected() == 0 {
			return err
		}
		found = true
		if t.IsDefault {
			_, err = tx.Exec(ctx, `UPDATE templates SET is_default = FALSE WHERE id <> $1`, id)
		}
		return err
	})
	return found, wrap("update template", err)
}

func (p *Postgres) DeleteTemplate(ctx context.Context, id int64) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return false, wrap("delete template", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) SetDefaultTemplate(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE templates SET is_default = TRUE WHERE id = $1`, id)
		if err != nil || tag.RowsAffected() == 0 {
			return err
		}
		found = true
		_, err = tx.Exec(ctx, `UPDATE templates SET is_default = FALSE WHERE id <> $1`, id)
		return err
	})
	return found, wrap("set default template", err)
}

func scanHistoryRow(row pgx.CollectableRow) (HistoryItem, error) {
	var (
		it               HistoryItem
		label, thumbnail pgtype.Text
		created, updated pgtype.Timestamptz
	)
	if err := row.Scan(&it.ID, &it.Content, &it.QRType, &label, &it.StyleJSON, &thumbnail, &created, &updated); err != nil {
		return HistoryItem{}, err
	}
	it.Label = textPtr(label)
	it.Thumbnail = textPtr(thumbnail)
	it.CreatedAt = created.Time.UTC()
	it.UpdatedAt = updated.Time.UTC()
	return it, nil
}

func scanTemplateRow(row pgx.CollectableRow) (Template, error) {
	var (
		t       Template
		preview pgtype.Text
		created pgtype.Timestamptz
	)
	if err := row.Scan(&t.ID, &t.Name, &t.StyleJSON, &preview, &t.IsDefault, &created); err != nil {
		return Template{}, err
	}
	t.Preview = textPtr(preview)
	t.CreatedAt = created.Time.UTC()
	return t, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	v := t.String
	return &v
}
