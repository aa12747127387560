package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/qrforge/internal/logging"
	"github.com/JonMunkholm/qrforge/internal/store"
)

var (
	ErrTemplateNameRequired = errors.New("template name is required")
	ErrInvalidStyleJSON     = errors.New("invalid style json")
)

// ListTemplates returns all templates, the default first.
func (s *Service) ListTemplates(ctx context.Context) ([]store.Template, error) {
	return s.store.ListTemplates(ctx)
}

// GetTemplate returns one template or an error wrapping store.ErrNotFound.
func (s *Service) GetTemplate(ctx context.Context, id int64) (*store.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

// SaveTemplate validates and stores a new template.
func (s *Service) SaveTemplate(ctx context.Context, t store.NewTemplate) (int64, error) {
	t, err := validateTemplate(t)
	if err != nil {
		return 0, err
	}
	id, err := s.store.SaveTemplate(ctx, t)
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("template saved", "id", id, "name", t.Name, "default", t.IsDefault)
	return id, nil
}

// UpdateTemplate replaces a template and reports whether it existed.
func (s *Service) UpdateTemplate(ctx context.Context, id int64, t store.NewTemplate) (bool, error) {
	t, err := validateTemplate(t)
	if err != nil {
		return false, err
	}
	return s.store.UpdateTemplate(ctx, id, t)
}

// DeleteTemplate removes a template and reports whether it existed.
func (s *Service) DeleteTemplate(ctx context.Context, id int64) (bool, error) {
	return s.store.DeleteTemplate(ctx, id)
}

// SetDefaultTemplate makes id the only default template.
func (s *Service) SetDefaultTemplate(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.SetDefaultTemplate(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		logging.FromContext(ctx).Info("default template changed", "id", id)
	}
	return ok, nil
}

func validateTemplate(t store.NewTemplate) (store.NewTemplate, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return t, ErrTemplateNameRequired
	}
	style, err := normalizeStyle(t.StyleJSON)
	if err != nil {
		return t, err
	}
	t.StyleJSON = style
	t.Preview = blankToNil(t.Preview)
	return t, nil
}

// normalizeStyle checks that style is a JSON object. Blank input becomes "{}".
func normalizeStyle(style string) (string, error) {
	style = strings.TrimSpace(style)
	if style == "" {
		return "{}", nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(style), &obj); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStyleJSON, err)
	}
	if obj == nil {
		return "", fmt.Errorf("%w: expected an object", ErrInvalidStyleJSON)
	}
	return style, nil
}
