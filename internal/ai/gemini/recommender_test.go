package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/internship"
)

type stubGenerator struct {
	answer   string
	err      error
	requests []Request
}

func (s *stubGenerator) GenerateJSON(_ context.Context, req Request) (string, error) {
	s.requests = append(s.requests, req)
	return s.answer, s.err
}

func (s *stubGenerator) Model() string { return "stub-model" }

func testProfile(t *testing.T) *internship.UserProfile {
	t.Helper()
	doc, err := internship.EncodeDocument([]byte("%PDF-1.4 resume"), "cv.pdf")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &internship.UserProfile{
		FullName:     "Ada",
		Email:        "ada@example.com",
		FieldOfStudy: "Computer Science",
		Skills:       "Go,\nSQL",
		ResumeFile:   doc,
	}
}

func TestRecommenderGenerateStripsScores(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answer: "```json\n[" +
		`{"company":"Acme","role":"Backend Intern","field":"Software","skillsRequired":["Go"],"location":"Remote","description":"APIs","matchScore":88,"reasoning":"x"},` +
		`{"company":"","role":"Nameless","field":"x","skillsRequired":[],"location":"y","description":"z"}` +
		"]\n```"}

	rec := NewRecommender(gen, zap.NewNop(), 0)
	rec.SetListingCount(3)

	listings, err := rec.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected records without company to be skipped, got %d", len(listings))
	}
	if listings[0].Scored() || listings[0].Reasoning != "" {
		t.Fatalf("expected generated listing to be unscored, got %+v", listings[0])
	}

	req := gen.requests[0]
	if !strings.Contains(req.Prompt, "3") || strings.Contains(req.Prompt, "{{COUNT}}") {
		t.Fatalf("expected listing count in prompt, got %q", req.Prompt)
	}
	if req.Document != nil {
		t.Fatal("generate must not attach a document")
	}
	if _, ok := req.Schema.Items.Properties["matchScore"]; ok {
		t.Fatal("generate schema must not request scores")
	}
}

func TestRecommenderRecommendRanksAndTruncates(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answer: `{"internships":[
		{"company":"A","role":"r","matchScore":40,"reasoning":"ok"},
		{"company":"B","role":"r","matchScore":"90","reasoning":"great"},
		{"company":"C","role":"r","matchScore":150,"reasoning":"over"},
		{"company":"D","role":"r","matchScore":-5,"reasoning":"under"},
		{"company":"E","role":"r","matchScore":70,"reasoning":"good"},
		{"company":"F","role":"r","matchScore":60,"reasoning":"fine"}
	]}`}

	rec := NewRecommender(gen, zap.NewNop(), 50)
	listings := []internship.Internship{{Company: "A", Role: "r"}}

	results, err := rec.Recommend(context.Background(), testProfile(t), listings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != ai.MaxRecommendations {
		t.Fatalf("expected %d results, got %d", ai.MaxRecommendations, len(results))
	}

	wantOrder := []string{"C", "B", "E", "F", "A"}
	for idx, want := range wantOrder {
		if results[idx].Company != want {
			t.Fatalf("position %d: expected %s, got %s", idx, want, results[idx].Company)
		}
	}
	if results[0].Score() != 100 {
		t.Fatalf("expected score clamped to 100, got %d", results[0].Score())
	}

	req := gen.requests[0]
	if req.Document == nil || req.Document.MimeType != "application/pdf" {
		t.Fatalf("expected resume to be attached")
	}
	if !strings.Contains(req.Prompt, "Computer Science") || !strings.Contains(req.Prompt, "Go, SQL") {
		t.Fatalf("expected profile in prompt, got %q", req.Prompt)
	}
	if !strings.Contains(req.Prompt, `"company": "A"`) {
		t.Fatalf("expected listings JSON in prompt")
	}
}

func TestRecommenderRecommendRequiresResume(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answer: "[]"}
	rec := NewRecommender(gen, zap.NewNop(), 0)

	profile := testProfile(t)
	profile.ResumeFile = nil

	if _, err := rec.Recommend(context.Background(), profile, []internship.Internship{}); err == nil {
		t.Fatal("expected error without resume")
	}
	if len(gen.requests) != 0 {
		t.Fatalf("expected no model call, got %d", len(gen.requests))
	}
}

func TestRecommenderPropagatesGeneratorErrors(t *testing.T) {
	t.Parallel()

	upstream := errors.New("upstream down")
	rec := NewRecommender(&stubGenerator{err: upstream}, zap.NewNop(), 0)

	if _, err := rec.Generate(context.Background()); !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestParseListings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "plain array", raw: `[{"company":"A","role":"r"}]`, want: 1},
		{name: "fenced", raw: "```json\n[{\"company\":\"A\",\"role\":\"r\"}]\n```", want: 1},
		{name: "wrapped", raw: `{"internships":[{"company":"A","role":"r"},{"company":"B","role":"r"}]}`, want: 2},
		{name: "empty array", raw: `[]`, want: 0},
		{name: "not json", raw: `sorry, I cannot help`, wantErr: true},
		{name: "object without list", raw: `{"foo":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseListings(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d listings, got %d", tt.want, len(got))
			}
		})
	}
}
