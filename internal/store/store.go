// Package store persists generation history and style templates.
//
// Two backends implement Store: Postgres (pgx pool) and SQLite (modernc,
// pure Go). Open picks one from the database URL. Both create their tables
// on first use; there are no migrations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// Paging limits for ListHistory.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// HistoryItem is one previously generated code.
type HistoryItem struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	QRType    string    `json:"qrType"`
	Label     *string   `json:"label"`
	StyleJSON string    `json:"styleJson"`
	Thumbnail *string   `json:"thumbnail"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewHistoryItem is the input to SaveHistory.
type NewHistoryItem struct {
	Content   string  `json:"content"`
	QRType    string  `json:"qrType"`
	Label     *string `json:"label,omitempty"`
	StyleJSON string  `json:"styleJson"`
	Thumbnail *string `json:"thumbnail,omitempty"`
}

// HistoryQuery selects a page of history, newest first. Search matches
// content or label as a case-insensitive substring.
type HistoryQuery struct {
	Limit  int
	Offset int
	Search string
}

// Normalize applies paging defaults and bounds.
func (q HistoryQuery) Normalize() HistoryQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultHistoryLimit
	}
	if q.Limit > MaxHistoryLimit {
		q.Limit = MaxHistoryLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Template is a saved style preset.
type Template struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StyleJSON string    `json:"styleJson"`
	Preview   *string   `json:"preview"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTemplate is the input to SaveTemplate and UpdateTemplate.
type NewTemplate struct {
	Name      string  `json:"name"`
	StyleJSON string  `json:"styleJson"`
	Preview   *string `json:"preview,omitempty"`
	IsDefault bool    `json:"isDefault"`
}

// Store is the persistence boundary used by the service layer.
//
// Methods returning bool report whether a row was affected. At most one
// template is the default at any time: saving or updating a template with
// IsDefault set clears the flag on all others in the same transaction.
type Store interface {
	ListHistory(ctx context.Context, q HistoryQuery) ([]HistoryItem, error)
	CountHistory(ctx context.Context, search string) (int64, error)
	SaveHistory(ctx context.Context, item NewHistoryItem) (int64, error)
	DeleteHistory(ctx context.Context, id int64) (bool, error)
	ClearHistory(ctx context.Context) (int64, error)

	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, id int64) (*Template, error)
	SaveTemplate(ctx context.Context, t NewTemplate) (int64, error)
	UpdateTemplate(ctx context.Context, id int64, t NewTemplate) (bool, error)
	DeleteTemplate(ctx context.Context, id int64) (bool, error)
	SetDefaultTemplate(ctx context.Context, id int64) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Config selects and tunes a backend.
type Config struct {
	// URL is a postgres:// or postgresql:// connection string, or a SQLite
	// path (optionally prefixed with sqlite://). ":memory:" opens a private
	// in-memory database.
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// IsPostgres reports whether url names a Postgres server.
func IsPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Open connects to the backend named by cfg.URL and ensures its schema.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("store: empty database url")
	}
	if IsPostgres(cfg.URL) {
		return OpenPostgres(ctx, cfg)
	}
	return OpenSQLite(ctx, strings.TrimPrefix(cfg.URL, "sqlite://"))
}

// likePattern builds a substring pattern for LIKE ... ESCAPE '\'.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
