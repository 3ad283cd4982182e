// Package theme persists the light/dark display preference.
package theme

import (
	"context"
	"fmt"

	"github.com/spigell/internify/internal/storage"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse accepts only the known theme names.
func Parse(value string) (Theme, bool) {
	switch Theme(value) {
	case Light, Dark:
		return Theme(value), true
	default:
		return "", false
	}
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Load reads the stored preference. Missing or unknown values yield fallback,
// which itself defaults to Light.
func Load(ctx context.Context, store storage.Store, fallback Theme) (Theme, error) {
	if _, ok := Parse(string(fallback)); !ok {
		fallback = Light
	}

	raw, ok, err := storage.Lookup(ctx, store, storage.KeyTheme)
	if err != nil {
		return fallback, fmt.Errorf("read theme: %w", err)
	}
	if !ok {
		return fallback, nil
	}

	if t, ok := Parse(raw); ok {
		return t, nil
	}
	return fallback, nil
}

func Save(ctx context.Context, store storage.Store, t Theme) error {
	if _, ok := Parse(string(t)); !ok {
		return fmt.Errorf("unknown theme %q", t)
	}
	if err := store.Set(ctx, storage.KeyTheme, string(t)); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}
