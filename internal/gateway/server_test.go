package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/internify/internal/ai/aitest"
	"github.com/spigell/internify/internal/internship"
)

func do(t *testing.T, h http.Handler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, Path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		method  string
		body    string
		status  int
		message string
	}{
		{name: "get", method: http.MethodGet, status: http.StatusMethodNotAllowed, message: "Method Not Allowed"},
		{name: "put", method: http.MethodPut, body: `{"action":"generate"}`, status: http.StatusMethodNotAllowed, message: "Method Not Allowed"},
		{name: "empty body", method: http.MethodPost, status: http.StatusBadRequest, message: "Request body is empty."},
		{name: "blank body", method: http.MethodPost, body: "  \n", status: http.StatusBadRequest, message: "Request body is empty."},
		{name: "unknown action", method: http.MethodPost, body: `{"action":"delete"}`, status: http.StatusBadRequest, message: "Invalid action: delete"},
		{name: "missing action", method: http.MethodPost, body: `{}`, status: http.StatusBadRequest, message: "Invalid action: "},
		{name: "recommend without payload", method: http.MethodPost, body: `{"action":"recommend"}`, status: http.StatusBadRequest, message: "Missing 'userProfile' or 'internships' in payload for 'recommend' action."},
		{name: "recommend without internships", method: http.MethodPost, body: `{"action":"recommend","payload":{"userProfile":{"fullName":"Ada"}}}`, status: http.StatusBadRequest, message: "Missing 'userProfile' or 'internships' in payload for 'recommend' action."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gateway := &aitest.Gateway{}
			h := NewServer(gateway, ServerOptions{Logger: zap.NewNop()}).Handler()

			rec := do(t, h, tt.method, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if msg := errorMessage(t, rec); msg != tt.message {
				t.Fatalf("expected %q, got %q", tt.message, msg)
			}
			if gateway.GenerateCalls()+gateway.RecommendCalls() != 0 {
				t.Fatal("expected no upstream calls")
			}
		})
	}
}

func TestHandlerMalformedJSON(t *testing.T) {
	t.Parallel()

	h := NewServer(&aitest.Gateway{}, ServerOptions{}).Handler()
	rec := do(t, h, http.MethodPost, `{"action":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.HasPrefix(errorMessage(t, rec), "Invalid JSON body") {
		t.Fatalf("unexpected message %q", rec.Body.String())
	}
}

func TestHandlerGenerate(t *testing.T) {
	t.Parallel()

	gateway := aitest.Listings(internship.Internship{Company: "Acme", Role: "Intern", SkillsRequired: []string{"Go"}})
	h := NewServer(gateway, ServerOptions{}).Handler()

	rec := do(t, h, http.MethodPost, `{"action":"generate"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var items []internship.Internship
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Company != "Acme" || items[0].Scored() {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestHandlerGenerateEmptyIsArray(t *testing.T) {
	t.Parallel()

	gateway := &aitest.Gateway{
		GenerateFunc: func(context.Context) ([]internship.Internship, error) { return nil, nil },
	}
	h := NewServer(gateway, ServerOptions{}).Handler()

	rec := do(t, h, http.MethodPost, `{"action":"generate"}`)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}
}

func TestHandlerRecommend(t *testing.T) {
	t.Parallel()

	var gotProfile *internship.UserProfile
	var gotListings []internship.Internship
	gateway := &aitest.Gateway{
		RecommendFunc: func(_ context.Context, p *internship.UserProfile, l []internship.Internship) ([]internship.Internship, error) {
			gotProfile, gotListings = p, l
			return []internship.Internship{l[0].WithScore(77, "fits")}, nil
		},
	}
	h := NewServer(gateway, ServerOptions{}).Handler()

	body := `{"action":"recommend","payload":{
		"userProfile":{"fullName":"Ada","email":"ada@example.com","fieldOfStudy":"CS","skills":"Go","resumeFile":{"mimeType":"application/pdf","data":"JVBERg=="}},
		"internships":[{"company":"Acme","role":"Intern","field":"Software","skillsRequired":["Go"],"location":"Remote","description":"APIs"}]
	}}`
	rec := do(t, h, http.MethodPost, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if gotProfile.ResumeFile.MimeType != "application/pdf" || len(gotListings) != 1 {
		t.Fatalf("unexpected upstream input: %+v %+v", gotProfile, gotListings)
	}

	var items []internship.Internship
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Score() != 77 || items[0].Reasoning != "fits" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestHandlerUpstreamFailure(t *testing.T) {
	t.Parallel()

	gateway := &aitest.Gateway{
		GenerateFunc: func(context.Context) ([]internship.Internship, error) {
			return nil, errors.New("model overloaded")
		},
	}
	h := NewServer(gateway, ServerOptions{}).Handler()

	rec := do(t, h, http.MethodPost, `{"action":"generate"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Server error: model overloaded" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHandlerRateLimit(t *testing.T) {
	t.Parallel()

	h := NewServer(&aitest.Gateway{}, ServerOptions{RequestsPerSecond: 0.001, Burst: 2}).Handler()

	for i := range 2 {
		if rec := do(t, h, http.MethodPost, `{"action":"generate"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodPost, `{"action":"generate"}`); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestHandlerBodyLimit(t *testing.T) {
	t.Parallel()

	h := NewServer(&aitest.Gateway{}, ServerOptions{MaxBodyBytes: 16}).Handler()

	rec := do(t, h, http.MethodPost, `{"action":"generate","padding":"xxxxxxxxxxxxxxxx"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := NewServer(&aitest.Gateway{}, ServerOptions{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewServer(&aitest.Gateway{}, ServerOptions{}).ListenAndServe(ctx, "127.0.0.1:0")
	}()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
