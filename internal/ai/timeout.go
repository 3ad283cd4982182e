package ai

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/internify/internal/internship"
)

// DefaultTimeout bounds a single gateway call.
const DefaultTimeout = 30 * time.Second

// TimeoutGateway bounds every call of the wrapped gateway. A call cut off by
// its own deadline fails with ErrTimeout.
type TimeoutGateway struct {
	next    Gateway
	timeout time.Duration
}

var _ Gateway = (*TimeoutGateway)(nil)

// WithTimeout wraps next. A non-positive timeout uses DefaultTimeout.
func WithTimeout(next Gateway, timeout time.Duration) *TimeoutGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TimeoutGateway{next: next, timeout: timeout}
}

func (g *TimeoutGateway) Generate(ctx context.Context) ([]internship.Internship, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	items, err := g.next.Generate(callCtx)
	if err != nil {
		return nil, timeoutError(ctx, callCtx, ActionGenerate, err)
	}
	return items, nil
}

func (g *TimeoutGateway) Recommend(ctx context.Context, profile *internship.UserProfile, listings []internship.Internship) ([]internship.Internship, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	items, err := g.next.Recommend(callCtx, profile, listings)
	if err != nil {
		return nil, timeoutError(ctx, callCtx, ActionRecommend, err)
	}
	return items, nil
}

// timeoutError reports ErrTimeout only when the deadline added here fired,
// not when the caller's own context ended.
func timeoutError(parent, callCtx context.Context, action string, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return &GatewayError{Action: action, Err: ErrTimeout}
	}
	return err
}
