// Package local recommends internships without a generative model: it
// serves a built-in catalog and ranks listings by how many of their
// required skills the profile and resume cover.
package local

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/logger"
)

// ProviderName selects this gateway in configuration.
const ProviderName = "local"

const model = "skill-overlap"

// Recommender is an ai.Gateway that needs no API key.
type Recommender struct {
	logger *zap.Logger
}

var _ ai.Gateway = (*Recommender)(nil)

func New(log *zap.Logger) *Recommender {
	return &Recommender{
		logger: logger.WithCommonFields(logger.Component(log, "local"), ProviderName, model),
	}
}

// Generate returns the built-in catalog.
func (r *Recommender) Generate(ctx context.Context) ([]internship.Internship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := Catalog()
	r.logger.Debug("serving built-in catalog", zap.Int("count", len(items)))
	return items, nil
}

// Recommend scores every listing by required-skill coverage and returns the
// best MaxRecommendations with a positive score. Listings repeating an
// identity are scored once.
func (r *Recommender) Recommend(ctx context.Context, profile *internship.UserProfile, listings []internship.Internship) ([]internship.Internship, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	have := skillKeywords(profile.Skills)
	have.add(extractKeywords(profile.FieldOfStudy))

	if !profile.ResumeFile.Empty() {
		text, err := resumeText(profile.ResumeFile)
		if err != nil {
			// Profile skills alone still rank listings.
			r.logger.Warn("could not read resume text", zap.Error(err))
		} else {
			have.add(extractKeywords(text))
		}
	}

	r.logger.Debug("profile keywords", zap.Int("count", len(have)))

	seen := make(map[internship.Key]bool, len(listings))
	scored := make([]internship.Internship, 0, len(listings))
	for _, item := range listings {
		if seen[item.Key()] {
			continue
		}
		seen[item.Key()] = true

		score, matched := coverage(have, item)
		if score <= 0 {
			continue
		}
		scored = append(scored, item.Clone().WithScore(score, reasoning(matched, len(item.SkillsRequired))))
	}

	slices.SortStableFunc(scored, func(a, b internship.Internship) int {
		return b.Score() - a.Score()
	})
	if len(scored) > ai.MaxRecommendations {
		scored = scored[:ai.MaxRecommendations]
	}

	r.logger.Info("recommendations ranked", zap.Int("count", len(scored)))
	return scored, nil
}

// coverage is the share of required skills the profile covers, 0..100.
// Listings without required skills fall back to matching their field.
func coverage(have keywords, item internship.Internship) (int, []string) {
	required := item.SkillsRequired
	if len(required) == 0 && item.Field != "" {
		required = []string{item.Field}
	}
	if len(required) == 0 {
		return 0, nil
	}

	var matched []string
	for _, skill := range required {
		if have.matches(skill) {
			matched = append(matched, skill)
		}
	}

	score := int(math.Round(100 * float64(len(matched)) / float64(len(required))))
	return score, matched
}

func reasoning(matched []string, total int) string {
	if total == 0 {
		return fmt.Sprintf("Your background fits this role's field (%s).", strings.Join(matched, ", "))
	}
	return fmt.Sprintf("You cover %d of %d required skills: %s.", len(matched), total, strings.Join(matched, ", "))
}
