package saved

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/storage"
)

var (
	acme    = internship.Internship{Company: "Acme", Role: "Backend Intern", SkillsRequired: []string{"Go"}}
	globex  = internship.Internship{Company: "Globex", Role: "Design Intern"}
	initech = internship.Internship{Company: "Initech", Role: "QA Intern"}
)

func persisted(t *testing.T, store storage.Store) []internship.Internship {
	t.Helper()
	raw, err := store.Get(context.Background(), storage.KeySaved)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var items []internship.Internship
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return items
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for _, x := range []internship.Internship{acme, globex, initech, {Company: "New", Role: "Intern"}} {
		s := New(storage.NewMemory(), zap.NewNop())
		s.Toggle(ctx, acme)
		s.Toggle(ctx, globex)
		original := s.Items()

		s.Toggle(ctx, x)
		s.Toggle(ctx, x)

		got := s.Items()
		keys := func(items []internship.Internship) []internship.Key {
			out := make([]internship.Key, len(items))
			for idx, item := range items {
				out[idx] = item.Key()
			}
			return out
		}
		// Re-adding a removed item appends it, so compare identities as a set.
		if len(got) != len(original) {
			t.Fatalf("toggle(toggle(%s)) changed size: %v -> %v", x.Company, keys(original), keys(got))
		}
		for _, item := range original {
			if !s.Contains(item) {
				t.Fatalf("toggle(toggle(%s)) lost %s", x.Company, item.Company)
			}
		}
	}
}

func TestToggleNeverDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()
	s := New(store, zap.NewNop())

	sequence := []internship.Internship{acme, globex, acme, acme, globex.WithScore(80, "re-scored"), initech, acme}
	for _, item := range sequence {
		s.Toggle(ctx, item)

		seen := map[internship.Key]bool{}
		for _, saved := range s.Items() {
			if seen[saved.Key()] {
				t.Fatalf("duplicate identity %v", saved.Key())
			}
			seen[saved.Key()] = true
		}
	}

	if !reflect.DeepEqual(persisted(t, store), s.Items()) {
		t.Fatal("expected persisted set to mirror memory")
	}
}

func TestToggleReportsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(storage.NewMemory(), zap.NewNop())

	if !s.Toggle(ctx, acme) || !s.Contains(acme) || s.Len() != 1 {
		t.Fatal("expected acme to be saved")
	}
	if s.Toggle(ctx, acme.WithScore(10, "")) || s.Contains(acme) || s.Len() != 0 {
		t.Fatal("expected identity match to remove acme")
	}
}

func TestLoadInitial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()
	data, _ := json.Marshal([]internship.Internship{acme, globex, acme})
	if err := store.Set(ctx, storage.KeySaved, string(data)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := New(store, zap.NewNop())
	s.LoadInitial(ctx)

	items := s.Items()
	if len(items) != 2 || items[0].Key() != acme.Key() || items[1].Key() != globex.Key() {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestLoadInitialClearsCorruptedEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()
	if err := store.Set(ctx, storage.KeySaved, `[{"company":`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	core, observed := observer.New(zapcore.WarnLevel)
	s := New(store, zap.New(core))
	s.LoadInitial(ctx)

	if s.Len() != 0 {
		t.Fatalf("expected empty set, got %d", s.Len())
	}
	if _, err := store.Get(ctx, storage.KeySaved); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected corrupted entry to be removed, got %v", err)
	}
	if observed.FilterMessage("discarding corrupted saved internships").Len() != 1 {
		t.Fatal("expected corruption to be logged")
	}
}

type brokenStore struct {
	storage.Store
}

func (brokenStore) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func TestTogglePersistFailureKeepsState(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	s := New(brokenStore{storage.NewMemory()}, zap.New(core))

	if !s.Toggle(context.Background(), acme) {
		t.Fatal("expected toggle to report saved")
	}
	if !s.Contains(acme) {
		t.Fatal("expected in-memory state to keep the change")
	}
	if observed.FilterMessage("failed to persist saved internships").Len() != 1 {
		t.Fatal("expected persistence failure to be logged")
	}
}

func TestItemsReturnsCopies(t *testing.T) {
	t.Parallel()

	s := New(storage.NewMemory(), zap.NewNop())
	s.Toggle(context.Background(), acme)

	items := s.Items()
	items[0].SkillsRequired[0] = "Rust"

	if s.Items()[0].SkillsRequired[0] != "Go" {
		t.Fatal("expected Items to return deep copies")
	}
}
