// Package saved keeps the user's bookmarked internships.
package saved

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/logger"
	"github.com/spigell/internify/internal/storage"
)

// Store is an ordered set of internships keyed by (company, role), mirrored
// to the persistence port on every change.
type Store struct {
	store  storage.Store
	logger *zap.Logger

	mu    sync.RWMutex
	items []internship.Internship
}

func New(store storage.Store, log *zap.Logger) *Store {
	return &Store{
		store:  store,
		logger: logger.Component(log, "saved"),
		items:  []internship.Internship{},
	}
}

// LoadInitial replaces the in-memory set with the persisted one. A corrupted
// entry is removed and the set starts empty.
func (s *Store) LoadInitial(ctx context.Context) {
	items := s.read(ctx)

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	s.logger.Debug("saved internships loaded", zap.Int("count", len(items)))
}

func (s *Store) read(ctx context.Context) []internship.Internship {
	raw, ok, err := storage.Lookup(ctx, s.store, storage.KeySaved)
	if err != nil {
		s.logger.Warn("failed to read saved internships", zap.Error(err))
		return []internship.Internship{}
	}
	if !ok {
		return []internship.Internship{}
	}

	var items []internship.Internship
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("discarding corrupted saved internships", zap.Error(err))
		if err := s.store.Remove(ctx, storage.KeySaved); err != nil {
			s.logger.Warn("failed to remove saved internships", zap.Error(err))
		}
		return []internship.Internship{}
	}

	deduped := make([]internship.Internship, 0, len(items))
	for _, item := range items {
		if internship.IndexOf(deduped, item.Key()) == -1 {
			deduped = append(deduped, item)
		}
	}
	return deduped
}

// Toggle removes item when an internship with the same identity is saved,
// otherwise appends it. It reports whether the item is saved afterwards.
// Persistence failures are logged and do not roll back the change.
func (s *Store) Toggle(ctx context.Context, item internship.Internship) bool {
	s.mu.Lock()
	saved := false
	if idx := internship.IndexOf(s.items, item.Key()); idx != -1 {
		s.items = slices.Delete(s.items, idx, idx+1)
	} else {
		s.items = append(s.items, item.Clone())
		saved = true
	}
	snapshot := cloneAll(s.items)
	s.mu.Unlock()

	fields := logger.ListingFields(item.Company, item.Role)
	if err := s.persist(ctx, snapshot); err != nil {
		s.logger.Warn("failed to persist saved internships", append(fields, zap.Error(err))...)
	}
	s.logger.Debug("saved internships toggled", append(fields, zap.Bool("saved", saved))...)

	return saved
}

func (s *Store) persist(ctx context.Context, items []internship.Internship) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal saved internships: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeySaved, string(data)); err != nil {
		return fmt.Errorf("write saved internships: %w", err)
	}
	return nil
}

// Items returns a copy of the saved internships in insertion order.
func (s *Store) Items() []internship.Internship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.items)
}

func (s *Store) Contains(item internship.Internship) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return internship.IndexOf(s.items, item.Key()) != -1
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func cloneAll(items []internship.Internship) []internship.Internship {
	out := make([]internship.Internship, len(items))
	for idx, item := range items {
		out[idx] = item.Clone()
	}
	return out
}
