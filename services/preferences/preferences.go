// Package preferences stores the per-session display settings
package preferences

import (
	"context"

	"droidfolio/apperrors"
	"droidfolio/store"
)

// Storage keys
const (
	ThemeKey      = "theme"
	ColorThemeKey = "colorTheme"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type ColorTheme string

const (
	ColorGreen  ColorTheme = "green"
	ColorBlue   ColorTheme = "blue"
	ColorPurple ColorTheme = "purple"
	ColorOrange ColorTheme = "orange"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

func (c ColorTheme) Valid() bool {
	switch c {
	case ColorGreen, ColorBlue, ColorPurple, ColorOrange:
		return true
	}
	return false
}

// Preferences is the combined view returned to clients
type Preferences struct {
	Theme      Theme      `json:"theme"`
	ColorTheme ColorTheme `json:"colorTheme"`
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Theme(ctx context.Context) (Theme, error) {
	t, found, err := store.Load[Theme](ctx, s.store, ThemeKey)
	if err != nil {
		return "", err
	}
	if !found || !t.Valid() {
		return ThemeLight, nil
	}
	return t, nil
}

func (s *Service) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return apperrors.NewValidationError("Theme must be light or dark").WithDetails("theme", t)
	}
	return store.Save(ctx, s.store, ThemeKey, t)
}

func (s *Service) ColorTheme(ctx context.Context) (ColorTheme, error) {
	c, found, err := store.Load[ColorTheme](ctx, s.store, ColorThemeKey)
	if err != nil {
		return "", err
	}
	if !found || !c.Valid() {
		return ColorGreen, nil
	}
	return c, nil
}

func (s *Service) SetColorTheme(ctx context.Context, c ColorTheme) error {
	if !c.Valid() {
		return apperrors.NewValidationError("Color theme must be green, blue, purple or orange").WithDetails("colorTheme", c)
	}
	return store.Save(ctx, s.store, ColorThemeKey, c)
}

// Get returns both settings with defaults applied
func (s *Service) Get(ctx context.Context) (Preferences, error) {
	t, err := s.Theme(ctx)
	if err != nil {
		return Preferences{}, err
	}
	c, err := s.ColorTheme(ctx)
	if err != nil {
		return Preferences{}, err
	}
	return Preferences{Theme: t, ColorTheme: c}, nil
}

// Update applies whichever fields of p are set. Both are validated before
// either is written.
func (s *Service) Update(ctx context.Context, p Preferences) (Preferences, error) {
	if p.Theme != "" && !p.Theme.Valid() {
		return Preferences{}, apperrors.NewValidationError("Theme must be light or dark").WithDetails("theme", p.Theme)
	}
	if p.ColorTheme != "" && !p.ColorTheme.Valid() {
		return Preferences{}, apperrors.NewValidationError("Color theme must be green, blue, purple or orange").WithDetails("colorTheme", p.ColorTheme)
	}

	if p.Theme != "" {
		if err := s.SetTheme(ctx, p.Theme); err != nil {
			return Preferences{}, err
		}
	}
	if p.ColorTheme != "" {
		if err := s.SetColorTheme(ctx, p.ColorTheme); err != nil {
			return Preferences{}, err
		}
	}
	return s.Get(ctx)
}
