package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	applog "tally/internal/log"
	"tally/internal/storage"
)

// Theme is the display mode preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var ErrInvalidTheme = errors.New("invalid theme")

// ParseTheme accepts "light" or "dark", case-insensitively.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", ErrInvalidTheme
}

// PreferenceService persists the theme. It defaults to light.
type PreferenceService struct {
	mu     sync.RWMutex
	kv     storage.KeyValue
	logger *applog.Logger
	theme  Theme
}

func NewPreferenceService(ctx context.Context, kv storage.KeyValue, logger *applog.Logger) *PreferenceService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &PreferenceService{kv: kv, logger: logger.WithComponent(applog.ComponentPrefs), theme: ThemeLight}
	raw, ok, err := kv.Get(ctx, storage.KeyTheme)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read theme, using light", applog.FieldError, err)
		return s
	}
	if ok {
		if t, perr := ParseTheme(raw); perr == nil {
			s.theme = t
		}
	}
	return s
}

func (s *PreferenceService) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *PreferenceService) SetTheme(ctx context.Context, t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return ErrInvalidTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(ctx, t)
}

// Toggle switches between light and dark and returns the new theme.
func (s *PreferenceService) Toggle(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := ThemeDark
	if s.theme == ThemeDark {
		next = ThemeLight
	}
	if err := s.setLocked(ctx, next); err != nil {
		return s.theme, err
	}
	return next, nil
}

func (s *PreferenceService) setLocked(ctx context.Context, t Theme) error {
	if err := s.kv.Set(ctx, storage.KeyTheme, string(t)); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	s.theme = t
	return nil
}
