// Package storage provides the key-value persistence port used for the
// listing cache, the saved set and user preferences.
package storage

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyListingCache = "internify_internships_cache"
	KeySaved        = "internify_saved_internships"
	KeyTheme        = "theme"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// Store is a string-valued key-value slot outside the process.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Lookup wraps Get and folds ErrNotFound into ok=false.
func Lookup(ctx context.Context, s Store, key string) (string, bool, error) {
	value, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
