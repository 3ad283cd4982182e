// Package aitest provides a scriptable ai.Gateway for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/internship"
)

// Gateway is an in-process ai.Gateway that counts calls. Nil funcs answer
// with an empty result.
type Gateway struct {
	GenerateFunc  func(ctx context.Context) ([]internship.Internship, error)
	RecommendFunc func(ctx context.Context, profile *internship.UserProfile, listings []internship.Internship) ([]internship.Internship, error)

	mu             sync.Mutex
	generateCalls  int
	recommendCalls int
}

var _ ai.Gateway = (*Gateway)(nil)

// Listings returns a gateway whose Generate always answers with items.
func Listings(items ...internship.Internship) *Gateway {
	return &Gateway{
		GenerateFunc: func(context.Context) ([]internship.Internship, error) {
			out := make([]internship.Internship, 0, len(items))
			for _, item := range items {
				out = append(out, item.Clone())
			}
			return out, nil
		},
	}
}

func (g *Gateway) Generate(ctx context.Context) ([]internship.Internship, error) {
	g.mu.Lock()
	g.generateCalls++
	fn := g.GenerateFunc
	g.mu.Unlock()

	if fn == nil {
		return []internship.Internship{}, nil
	}
	return fn(ctx)
}

func (g *Gateway) Recommend(ctx context.Context, profile *internship.UserProfile, listings []internship.Internship) ([]internship.Internship, error) {
	g.mu.Lock()
	g.recommendCalls++
	fn := g.RecommendFunc
	g.mu.Unlock()

	if fn == nil {
		return []internship.Internship{}, nil
	}
	return fn(ctx, profile, listings)
}

func (g *Gateway) GenerateCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generateCalls
}

func (g *Gateway) RecommendCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recommendCalls
}
