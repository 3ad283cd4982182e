// Package finder holds the state of the internship finder view and drives
// the listing cache, the submission flow and the saved set on its behalf.
package finder

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/listings"
	"github.com/spigell/internify/internal/logger"
	"github.com/spigell/internify/internal/matching"
	"github.com/spigell/internify/internal/saved"
	"github.com/spigell/internify/internal/scheduler"
)

const (
	// DefaultRefreshInterval is how often the listing load is re-run.
	DefaultRefreshInterval = 37 * time.Minute

	// LoadErrorMessage is shown when listings cannot be produced.
	LoadErrorMessage = "Could not load internship opportunities. Please refresh the page."
	unknownError     = "An unknown error occurred. Please try again."

	refreshTask = "listings-refresh"
)

// View is a point-in-time copy of the finder state.
type View struct {
	Listings []internship.Internship
	// Matched is nil until a submission succeeds.
	Matched   []internship.Internship
	Top       []internship.Internship
	Remaining int
	Saved     []internship.Internship
	Error     string

	LoadingListings bool
	Submitting      bool
	Submitted       bool
	ListingsSource  listings.Source
}

// NoRecommendations reports the "nothing matched" outcome of a submission.
func (v View) NoRecommendations() bool {
	return v.Submitted && !v.Submitting && v.Matched != nil && len(v.Matched) == 0 && v.Error == ""
}

// Options tune a Finder.
type Options struct {
	// RefreshInterval re-runs the listing load. Negative disables it.
	RefreshInterval time.Duration
	Logger          *zap.Logger
}

// Finder is the controller of the main view. It is safe for concurrent use.
type Finder struct {
	cache     *listings.Cache
	flow      *matching.Flow
	saved     *saved.Store
	scheduler *scheduler.Scheduler
	interval  time.Duration
	logger    *zap.Logger

	mu     sync.RWMutex
	view   View
	handle *scheduler.Handle
	closed bool
}

func New(cache *listings.Cache, flow *matching.Flow, savedStore *saved.Store, sched *scheduler.Scheduler, opts Options) *Finder {
	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}

	return &Finder{
		cache:     cache,
		flow:      flow,
		saved:     savedStore,
		scheduler: sched,
		interval:  opts.RefreshInterval,
		logger:    logger.Component(opts.Logger, "finder"),
		view:      View{Listings: []internship.Internship{}, Saved: []internship.Internship{}},
	}
}

// Open loads the saved set and the listings, then schedules the periodic
// reload. A listing failure is reported through View().Error, not returned.
func (f *Finder) Open(ctx context.Context) error {
	f.saved.LoadInitial(ctx)
	f.mu.Lock()
	f.view.Saved = f.saved.Items()
	f.mu.Unlock()

	f.load(ctx)

	if f.interval <= 0 || f.scheduler == nil {
		return nil
	}

	handle, err := f.scheduler.Every(f.interval, refreshTask, func(ctx context.Context) {
		f.load(ctx)
	})
	if err != nil {
		return err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		handle.Cancel()
		return nil
	}
	f.handle = handle
	f.mu.Unlock()

	f.scheduler.Start()
	return nil
}

// load serves listings from the cache when possible.
func (f *Finder) load(ctx context.Context) {
	f.beginListingLoad()
	items, source, err := f.cache.Load(ctx)
	f.finishListingLoad(items, source, err)
}

// Refresh regenerates the listings regardless of the cache.
func (f *Finder) Refresh(ctx context.Context) error {
	f.beginListingLoad()
	items, err := f.cache.Refresh(ctx)
	f.finishListingLoad(items, listings.SourceGateway, err)
	return err
}

func (f *Finder) beginListingLoad() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view.LoadingListings = true
}

func (f *Finder) finishListingLoad(items []internship.Internship, source listings.Source, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.view.LoadingListings = false
	if f.closed {
		return
	}

	if err != nil {
		f.logger.Error("failed to load internships", zap.Error(err))
		f.view.Listings = []internship.Internship{}
		f.view.ListingsSource = 0
		f.view.Error = LoadErrorMessage
		return
	}

	if f.view.Error == LoadErrorMessage {
		f.view.Error = ""
	}
	f.view.Listings = items
	f.view.ListingsSource = source
	f.logger.Info("internships loaded", zap.Int("count", len(items)), zap.Stringer("source", source))
}

// Submit scores profile against the current listings. Validation failures
// leave previous results in place; other failures clear them.
func (f *Finder) Submit(ctx context.Context, profile *internship.UserProfile) error {
	if err := f.flow.Validate(profile); err != nil {
		f.mu.Lock()
		f.view.Error = err.Error()
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	if f.view.Submitting {
		f.mu.Unlock()
		return errors.New("a submission is already in progress")
	}
	f.view.Submitting = true
	f.view.Submitted = true
	f.view.Error = ""
	f.view.Matched = nil
	f.view.Top = nil
	f.view.Remaining = 0
	current := f.view.Listings
	f.mu.Unlock()

	result, err := f.flow.Submit(ctx, profile, current)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.view.Submitting = false

	if err != nil {
		f.view.Error = userMessage(err)
		return err
	}

	f.view.Matched = result.All
	f.view.Top = result.Top
	f.view.Remaining = result.Remaining
	return nil
}

// ToggleSave flips the saved state of item and reports the new state.
func (f *Finder) ToggleSave(ctx context.Context, item internship.Internship) bool {
	saved := f.saved.Toggle(ctx, item)

	f.mu.Lock()
	f.view.Saved = f.saved.Items()
	f.mu.Unlock()

	return saved
}

// IsSaved reports whether item is in the saved set.
func (f *Finder) IsSaved(item internship.Internship) bool {
	return f.saved.Contains(item)
}

// View returns a copy of the current state.
func (f *Finder) View() View {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v := f.view
	v.Listings = cloneAll(v.Listings)
	v.Saved = cloneAll(v.Saved)
	if v.Matched != nil {
		v.Matched = cloneAll(v.Matched)
		v.Top = cloneAll(v.Top)
	}
	return v
}

// Matched returns the ranked results of the last successful submission, or nil.
func (f *Finder) Matched() []internship.Internship {
	return f.View().Matched
}

// Close cancels the periodic reload and stops the scheduler. Results of
// calls still in flight are dropped.
func (f *Finder) Close() {
	f.mu.Lock()
	f.closed = true
	handle := f.handle
	f.handle = nil
	f.mu.Unlock()

	handle.Cancel()
	if f.scheduler != nil {
		f.scheduler.Stop()
	}
}

func userMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownError
}

func cloneAll(items []internship.Internship) []internship.Internship {
	if items == nil {
		return nil
	}
	out := make([]internship.Internship, len(items))
	for idx, item := range items {
		out[idx] = item.Clone()
	}
	return out
}
