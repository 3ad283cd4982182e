package gateway

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/logger"
)

const userAgent = "internify"

// Client calls a remote gateway endpoint and implements ai.Gateway.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds each call, including reading the response.
	Timeout time.Duration

	logger *zap.Logger
}

var _ ai.Gateway = (*Client)(nil)

// NewClient creates a client for the gateway at baseURL. A baseURL without
// the endpoint path gets Path appended.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, Path) {
		endpoint += Path
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{},
		UserAgent:  userAgent,
		Timeout:    timeout,
		logger:     logger.Component(log, "gateway-client"),
	}
}

func (c *Client) Generate(ctx context.Context) ([]internship.Internship, error) {
	var items []internship.Internship
	if err := c.call(ctx, Request{Action: ai.ActionGenerate}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Recommend(ctx context.Context, profile *internship.UserProfile, listings []internship.Internship) ([]internship.Internship, error) {
	if listings == nil {
		listings = []internship.Internship{}
	}

	var items []internship.Internship
	err := c.call(ctx, Request{
		Action:  ai.ActionRecommend,
		Payload: &RecommendParams{UserProfile: profile, Internships: listings},
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) call(ctx context.Context, payload Request, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &ai.GatewayError{Action: payload.Action, Err: fmt.Errorf("marshal request: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &ai.GatewayError{Action: payload.Action, Err: err}
	}
	c.setHeaders(req)

	data, status, err := c.request(req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return &ai.GatewayError{Action: payload.Action, Err: ai.ErrTimeout}
		}
		return &ai.GatewayError{Action: payload.Action, Err: err}
	}

	if status != http.StatusOK {
		var errResp ErrorResponse
		message := fmt.Sprintf("Request failed with status %d", status)
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return &ai.GatewayError{Action: payload.Action, Status: status, Err: errors.New(message)}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &ai.GatewayError{Action: payload.Action, Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) request(req *http.Request) ([]byte, int, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
}
