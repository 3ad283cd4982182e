package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/internify/internal/logger"
)

// State is the authentication state of the gate.
type State int

const (
	Unconfigured State = iota
	Initializing
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Initializing:
		return "initializing"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Gate tracks whether the user may reach the main view.
type Gate struct {
	provider Provider
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.Mutex
	state       State
	session     *Session
	closed      bool
	unsubscribe func()
	observers   map[int]func(State)
	nextID      int
	expiry      *time.Timer
}

// NewGate creates a gate. Without a provider it stays Unconfigured for good.
func NewGate(provider Provider, log *zap.Logger) *Gate {
	g := &Gate{
		provider:  provider,
		logger:    logger.Component(log, "session"),
		now:       time.Now,
		state:     Unconfigured,
		observers: make(map[int]func(State)),
	}
	if provider != nil {
		g.state = Initializing
	}
	return g
}

// Start subscribes to session changes and resolves the initial session.
func (g *Gate) Start(ctx context.Context) {
	if g.provider == nil {
		g.logger.Warn("authentication provider is not configured")
		return
	}

	g.mu.Lock()
	if g.closed || g.unsubscribe != nil {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	unsubscribe := g.provider.Subscribe(g.handleChange)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		unsubscribe()
		return
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()

	current, err := g.provider.CurrentSession(ctx)
	if err != nil {
		g.logger.Error("failed to get current session", zap.Error(err))
		current = nil
	}

	g.mu.Lock()
	// A change notification may already have resolved the state.
	if g.state == Initializing {
		g.setLocked(current)
	}
	g.mu.Unlock()
}

func (g *Gate) handleChange(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.setLocked(s)
}

// setLocked must be called with mu held. Observers run synchronously.
// A session past its expiry counts as none.
func (g *Gate) setLocked(s *Session) {
	if s != nil && !s.ExpiresAt.IsZero() && !g.now().Before(s.ExpiresAt) {
		g.logger.Info("ignoring expired session", zap.Time("expired_at", s.ExpiresAt))
		s = nil
	}
	g.armExpiryLocked(s)

	next := Unauthenticated
	if s != nil {
		next = Authenticated
	}

	g.session = s
	if next == g.state {
		return
	}

	g.logger.Debug("session state changed", zap.Stringer("from", g.state), zap.Stringer("to", next))
	g.state = next
	for _, fn := range g.observers {
		fn(next)
	}
}

// armExpiryLocked replaces the expiry timer with one for s.
func (g *Gate) armExpiryLocked(s *Session) {
	if g.expiry != nil {
		g.expiry.Stop()
		g.expiry = nil
	}
	if s == nil || s.ExpiresAt.IsZero() {
		return
	}

	g.expiry = time.AfterFunc(s.ExpiresAt.Sub(g.now()), func() {
		g.expire(s)
	})
}

func (g *Gate) expire(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || g.session != s {
		return
	}
	g.logger.Info("session expired", zap.Time("expired_at", s.ExpiresAt))
	g.setLocked(nil)
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the active session, nil unless Authenticated.
func (g *Gate) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authenticated {
		return nil
	}
	return g.session
}

// Admitted reports whether the main view may be shown. Without a provider
// the gate is open and only shows a warning.
func (g *Gate) Admitted() bool {
	state := g.State()
	return state == Authenticated || state == Unconfigured
}

// Warning is the notice shown when authentication is disabled.
func (g *Gate) Warning() string {
	if g.provider == nil {
		return DisabledWarning
	}
	return ""
}

// OnChange registers fn to be called with every new state. Callbacks must
// not call back into the gate.
func (g *Gate) OnChange(fn func(State)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.observers[id] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.observers, id)
	}
}

// SignIn validates the credentials and signs in through the provider.
func (g *Gate) SignIn(ctx context.Context, email, password string) error {
	email, err := ValidateCredentials(email, password)
	if err != nil {
		return err
	}
	if g.provider == nil {
		return &AuthError{Message: NotConfiguredError}
	}

	s, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		g.logger.Info("sign in failed", zap.Error(err))
		return signInError(err)
	}

	g.handleChange(s)
	return nil
}

// SignUp validates the credentials and registers a new account. The returned
// message is non-empty when the account needs confirmation first.
func (g *Gate) SignUp(ctx context.Context, email, password string) (string, error) {
	email, err := ValidateCredentials(email, password)
	if err != nil {
		return "", err
	}
	if g.provider == nil {
		return "", &AuthError{Message: NotConfiguredError}
	}

	s, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		g.logger.Info("sign up failed", zap.Error(err))
		return "", signUpError(err)
	}

	if s == nil {
		return ConfirmationMessage, nil
	}

	g.handleChange(s)
	return "", nil
}

// SignOut ends the session.
func (g *Gate) SignOut(ctx context.Context) error {
	if g.provider == nil {
		return nil
	}

	if err := g.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	g.handleChange(nil)
	return nil
}

// Close cancels the provider subscription. Later notifications are ignored.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	if g.expiry != nil {
		g.expiry.Stop()
		g.expiry = nil
	}
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.observers = make(map[int]func(State))
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
