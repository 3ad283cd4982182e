// Package auth is a self-hosted authentication provider that keeps accounts
// and the active session in the key-value store.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/internify/internal/logger"
	"github.com/spigell/internify/internal/session"
	"github.com/spigell/internify/internal/storage"
)

const (
	// KeySession holds the signed token of the active session.
	KeySession    = "internify_session"
	userKeyPrefix = "internify_user:"

	// DefaultTokenTTL matches a typical hosted-auth refresh window.
	DefaultTokenTTL = time.Hour

	errInvalidCredentials = "Invalid login credentials"
	errAlreadyRegistered  = "User already registered"
	errInvalidEmail       = "Unable to validate email address: invalid format"
)

// Options configure a Provider.
type Options struct {
	// Secret signs session tokens.
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	// Pepper is appended to passwords before hashing.
	Pepper string
	Now    func() time.Time
	Logger *zap.Logger
}

type user struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Provider implements session.Provider.
type Provider struct {
	store    storage.Store
	tokens   *tokenIssuer
	hasher   *hasher
	validate *validator.Validate
	logger   *zap.Logger

	mu          sync.Mutex
	subscribers map[int]func(*session.Session)
	nextID      int
}

var _ session.Provider = (*Provider)(nil)

func New(store storage.Store, opts Options) (*Provider, error) {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tokens, err := newTokenIssuer(opts.Secret, opts.TokenTTL, opts.Now)
	if err != nil {
		return nil, err
	}
	h, err := newHasher(opts.BcryptCost, opts.Pepper)
	if err != nil {
		return nil, err
	}

	return &Provider{
		store:       store,
		tokens:      tokens,
		hasher:      h,
		validate:    validator.New(),
		logger:      logger.Component(opts.Logger, "auth"),
		subscribers: make(map[int]func(*session.Session)),
	}, nil
}

// CurrentSession returns the stored session. Expired or tampered tokens are
// dropped.
func (p *Provider) CurrentSession(ctx context.Context) (*session.Session, error) {
	token, ok, err := storage.Lookup(ctx, p.store, KeySession)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	claims, err := p.tokens.parse(token)
	if err != nil {
		p.logger.Info("discarding stored session", zap.Error(err))
		if err := p.store.Remove(ctx, KeySession); err != nil {
			return nil, fmt.Errorf("remove session: %w", err)
		}
		return nil, nil
	}

	return &session.Session{
		UserID:    claims.UserID.String(),
		Email:     claims.Email,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	email = normalizeEmail(email)

	u, err := p.user(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !p.hasher.verify(password, u.PasswordHash) {
		return nil, &session.ProviderError{Message: errInvalidCredentials}
	}

	return p.start(ctx, u)
}

// SignUp registers the account and signs it in right away.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*session.Session, error) {
	email = normalizeEmail(email)
	if err := p.validate.Var(email, "required,email"); err != nil {
		return nil, &session.ProviderError{Message: errInvalidEmail}
	}

	existing, err := p.user(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &session.ProviderError{Message: errAlreadyRegistered}
	}

	hash, err := p.hasher.hash(password)
	if err != nil {
		return nil, err
	}

	u := &user{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.tokens.now().UTC(),
	}
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	if err := p.store.Set(ctx, userKeyPrefix+email, string(data)); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	p.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return p.start(ctx, u)
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.store.Remove(ctx, KeySession); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	p.notify(nil)
	return nil
}

func (p *Provider) Subscribe(fn func(*session.Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subscribers, id)
		})
	}
}

func (p *Provider) start(ctx context.Context, u *user) (*session.Session, error) {
	token, expiresAt, err := p.tokens.issue(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	if err := p.store.Set(ctx, KeySession, token); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s := &session.Session{
		UserID:    u.ID.String(),
		Email:     u.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	p.notify(s)
	return s, nil
}

func (p *Provider) user(ctx context.Context, email string) (*user, error) {
	raw, ok, err := storage.Lookup(ctx, p.store, userKeyPrefix+email)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var u user
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (p *Provider) notify(s *session.Session) {
	p.mu.Lock()
	subscribers := make([]func(*session.Session), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subscribers = append(subscribers, fn)
	}
	p.mu.Unlock()

	for _, fn := range subscribers {
		fn(s)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
