// Package matching scores a user profile against the current listings.
package matching

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/logger"
)

// DefaultTopN is how many ranked results are shown before "show more".
const DefaultTopN = 5

// MissingResumeMessage is reported when the profile carries no document.
const MissingResumeMessage = "A resume file is required to get recommendations."

var fieldMessages = map[string]string{
	"fullName":     "Please enter your full name.",
	"email":        "Please enter a valid email address.",
	"fieldOfStudy": "Please enter your field of study.",
	"skills":       "Please list at least one skill.",
}

// ValidationError is a profile rejected before any gateway call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Result is a completed submission.
type Result struct {
	// All holds every listing, enriched records substituted, sorted by score.
	All []internship.Internship
	// Top is the leading slice of All that is shown first.
	Top []internship.Internship
	// Remaining counts the entries of All beyond Top.
	Remaining int
	// Empty reports that the gateway found no recommendations.
	Empty bool
}

// Flow validates profiles and merges recommendation results into listings.
type Flow struct {
	gateway  ai.Gateway
	validate *validator.Validate
	topN     int
	logger   *zap.Logger
}

func New(gateway ai.Gateway, log *zap.Logger, topN int) *Flow {
	if topN <= 0 {
		topN = DefaultTopN
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Flow{
		gateway:  gateway,
		validate: validate,
		topN:     topN,
		logger:   logger.Component(log, "matching"),
	}
}

// Validate checks the profile without contacting the gateway.
func (f *Flow) Validate(profile *internship.UserProfile) error {
	if profile == nil || profile.ResumeFile.Empty() {
		return &ValidationError{Field: "resumeFile", Message: MissingResumeMessage}
	}

	normalized := normalize(*profile)
	if err := f.validate.Struct(&normalized); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := fieldErrs[0].Field()
			message, ok := fieldMessages[field]
			if !ok {
				message = "Please check the " + field + " field."
			}
			return &ValidationError{Field: field, Message: message}
		}
		return err
	}

	return nil
}

// Submit validates profile, asks the gateway to score it against listings
// and merges the answer. On error nothing is returned for the caller to apply.
func (f *Flow) Submit(ctx context.Context, profile *internship.UserProfile, listings []internship.Internship) (*Result, error) {
	if err := f.Validate(profile); err != nil {
		f.logger.Debug("profile rejected", zap.Error(err))
		return nil, err
	}

	normalized := normalize(*profile)
	if listings == nil {
		listings = []internship.Internship{}
	}

	f.logger.Info("requesting recommendations", zap.Int("listings", len(listings)))

	enriched, err := f.gateway.Recommend(ctx, &normalized, listings)
	if err != nil {
		f.logger.Warn("recommendation request failed", zap.Error(err))
		return nil, ai.AsGatewayError(ai.ActionRecommend, err)
	}

	if len(enriched) == 0 {
		f.logger.Info("no recommendations found")
		return &Result{All: []internship.Internship{}, Top: []internship.Internship{}, Empty: true}, nil
	}

	all := internship.Merge(listings, enriched)
	internship.Rank(all)
	top, remaining := internship.Top(all, f.topN)

	f.logger.Info("recommendations merged",
		zap.Int("scored", len(enriched)),
		zap.Int("total", len(all)),
	)

	return &Result{All: all, Top: top, Remaining: remaining}, nil
}

func normalize(profile internship.UserProfile) internship.UserProfile {
	profile.FullName = strings.TrimSpace(profile.FullName)
	profile.Email = strings.TrimSpace(profile.Email)
	profile.FieldOfStudy = strings.TrimSpace(profile.FieldOfStudy)
	profile.Skills = strings.TrimSpace(profile.Skills)
	return profile
}
