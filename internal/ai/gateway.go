// Package ai describes the recommendation gateway that fronts the generative model.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/internify/internal/internship"
)

// Actions understood by the gateway endpoint.
const (
	ActionGenerate  = "generate"
	ActionRecommend = "recommend"
)

// MaxRecommendations is the number of records a recommend call returns at most.
const MaxRecommendations = 5

// Gateway produces baseline listings and scores profiles against them.
type Gateway interface {
	// Generate returns a fresh baseline listing set.
	Generate(ctx context.Context) ([]internship.Internship, error)
	// Recommend returns up to MaxRecommendations enriched listings for the profile.
	Recommend(ctx context.Context, profile *internship.UserProfile, listings []internship.Internship) ([]internship.Internship, error)
}

// ErrTimeout is reported when the gateway does not answer within the deadline.
var ErrTimeout = errors.New("gateway request timed out")

// GatewayError is a failed or non-successful gateway call.
type GatewayError struct {
	Action string
	// Status is the HTTP status when the failure came from a response.
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("AI Service Error: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AsGatewayError wraps err unless it already is a GatewayError.
func AsGatewayError(action string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	return &GatewayError{Action: action, Err: err}
}
