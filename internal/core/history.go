package core

import (
	"context"
	"errors"
	"strings"

	"github.com/JonMunkholm/qrforge/internal/logging"
	"github.com/JonMunkholm/qrforge/internal/qr"
	"github.com/JonMunkholm/qrforge/internal/store"
)

// ErrContentRequired is returned when saving history without content.
var ErrContentRequired = errors.New("history content is required")

// HistoryPage is one page of history plus the total matching count.
type HistoryPage struct {
	Items   []store.HistoryItem `json:"items"`
	Total   int64               `json:"total"`
	HasMore bool                `json:"hasMore"`
}

// ListHistory returns a page of history, newest first.
func (s *Service) ListHistory(ctx context.Context, q store.HistoryQuery) (*HistoryPage, error) {
	q = q.Normalize()

	items, err := s.store.ListHistory(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountHistory(ctx, q.Search)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Items:   items,
		Total:   total,
		HasMore: int64(q.Offset+len(items)) < total,
	}, nil
}

// SaveHistory records a generated code. An empty type is classified from
// the content and an empty style is stored as "{}".
func (s *Service) SaveHistory(ctx context.Context, item store.NewHistoryItem) (int64, error) {
	item.Content = strings.TrimSpace(item.Content)
	if item.Content == "" {
		return 0, ErrContentRequired
	}
	item.QRType = strings.ToLower(strings.TrimSpace(item.QRType))
	if item.QRType == "" {
		item.QRType = string(qr.Classify(item.Content))
	}
	style, err := normalizeStyle(item.StyleJSON)
	if err != nil {
		return 0, err
	}
	item.StyleJSON = style
	item.Label = blankToNil(item.Label)

	id, err := s.store.SaveHistory(ctx, item)
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Debug("history saved", "id", id, "qr_type", item.QRType)
	return id, nil
}

// DeleteHistory removes one entry and reports whether it existed.
func (s *Service) DeleteHistory(ctx context.Context, id int64) (bool, error) {
	return s.store.DeleteHistory(ctx, id)
}

// ClearHistory removes every entry and returns how many were removed.
func (s *Service) ClearHistory(ctx context.Context) (int64, error) {
	n, err := s.store.ClearHistory(ctx)
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("history cleared", "removed", n)
	return n, nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
