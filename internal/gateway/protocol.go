// Package gateway exposes an ai.Gateway over HTTP and consumes it remotely.
package gateway

import "github.com/spigell/internify/internal/internship"

const (
	// Path is the single endpoint accepting gateway actions.
	Path       = "/api/gateway"
	HealthPath = "/healthz"

	contentType = "application/json"
)

// Request is the body of every gateway call.
type Request struct {
	Action  string           `json:"action"`
	Payload *RecommendParams `json:"payload,omitempty"`
}

// RecommendParams carries the recommend action input.
type RecommendParams struct {
	UserProfile *internship.UserProfile `json:"userProfile"`
	Internships []internship.Internship `json:"internships"`
}

// ErrorResponse is returned with every non-200 status.
type ErrorResponse struct {
	Error string `json:"error"`
}
