package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/ai/gemini"
	"github.com/spigell/internify/internal/ai/local"
	"github.com/spigell/internify/internal/auth"
	"github.com/spigell/internify/internal/gateway"
	"github.com/spigell/internify/internal/secrets"
	"github.com/spigell/internify/internal/session"
	"github.com/spigell/internify/internal/storage"
)

// newStore opens the configured persistence backend. The returned func
// releases it.
func newStore(ctx context.Context, cfg *StorageConfig, logger *zap.Logger) (storage.Store, func(), error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	logger.Debug("opening storage", zap.String("backend", backend))

	switch backend {
	case "", "file":
		return storage.NewFile(cfg.Path), func() {}, nil
	case "memory":
		return storage.NewMemory(), func() {}, nil
	case "redis":
		client, err := storage.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewRedis(client, cfg.RedisPrefix, cfg.RedisTTL)
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing redis", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// newProviderGateway builds the configured in-process gateway.
func newProviderGateway(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ai configuration is required")
	}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", "gemini":
		recommender, err := newRecommender(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return recommender, nil
	case local.ProviderName:
		logger.Info("using the built-in catalog and skill matching")
		return local.New(logger), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// newRecommender builds the Gemini backed gateway.
func newRecommender(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Recommender, error) {
	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   []string{"GEMINI_API_KEY"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	recommender := gemini.NewRecommender(generator, logger, cfg.Gemini.MaxLogLength)
	recommender.SetListingCount(cfg.Gemini.ListingCount)

	return recommender, nil
}

// newGateway returns the remote gateway client when a URL is configured and
// the in-process gateway otherwise. Both bound every call by gateway.timeout.
func newGateway(ctx context.Context, config *Config, logger *zap.Logger) (ai.Gateway, error) {
	if url := strings.TrimSpace(config.Gateway.URL); url != "" {
		logger.Info("using remote gateway", zap.String("url", url))
		return gateway.NewClient(url, config.Gateway.Timeout, logger), nil
	}

	gw, err := newProviderGateway(ctx, config.AI, logger)
	if err != nil {
		return nil, err
	}

	return ai.WithTimeout(gw, config.Gateway.Timeout), nil
}

// newAuthProvider returns nil when authentication is disabled.
func newAuthProvider(store storage.Store, cfg *AuthConfig, logger *zap.Logger) (session.Provider, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	secret, err := secrets.Load(secrets.Source{
		Name:  "jwt secret",
		File:  cfg.JWTSecretFile,
		Value: cfg.JWTSecret,
		Env:   []string{"JWT_SECRET"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set auth.jwt-secret-file or JWT_SECRET)", err)
	}

	provider, err := auth.New(store, auth.Options{
		Secret:     secret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
		Pepper:     cfg.Pepper,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return provider, nil
}
