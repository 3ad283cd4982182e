package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/spigell/internify/internal/finder"
	"github.com/spigell/internify/internal/internship"
)

func score(n int) *int {
	return &n
}

func TestRenderListingsPlain(t *testing.T) {
	var buf bytes.Buffer
	renderListings(&buf, []internship.Internship{{
		Company:        "Acme",
		Role:           "Backend Intern",
		Field:          "Software",
		Location:       "Remote",
		SkillsRequired: []string{"Go", "SQL"},
		Description:    "Build services",
	}})

	out := buf.String()
	for _, want := range []string{" 1. Backend Intern at Acme", "Software | Remote", "Skills: Go, SQL", "Build services"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "match]") {
		t.Fatalf("unscored listing should not show a score:\n%s", out)
	}
}

func TestRenderListingsEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderListings(&buf, nil)

	if got := strings.TrimSpace(buf.String()); got != "No internships to show." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRenderMatches(t *testing.T) {
	top := []internship.Internship{
		{Company: "A", Role: "R1", MatchScore: score(95), Reasoning: "Strong fit"},
	}
	all := append(append([]internship.Internship{}, top...), internship.Internship{Company: "B", Role: "R2"})

	tests := []struct {
		name string
		view finder.View
		want []string
		not  []string
	}{
		{
			name: "not submitted",
			view: finder.View{},
			want: []string{"Submit your profile"},
		},
		{
			name: "error wins",
			view: finder.View{Submitted: true, Error: "AI Service Error: boom"},
			want: []string{"AI Service Error: boom"},
		},
		{
			name: "no recommendations",
			view: finder.View{Submitted: true, Matched: []internship.Internship{}},
			want: []string{"No recommendations matched your profile."},
		},
		{
			name: "top with remainder",
			view: finder.View{Submitted: true, Matched: all, Top: top, Remaining: 1},
			want: []string{"R1 at A", "[95% match]", "Why: Strong fit", "(saved)", "Showing 1 of 2 matches."},
			not:  []string{"R2 at B"},
		},
	}

	isSaved := func(item internship.Internship) bool { return item.Company == "A" }

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderMatches(&buf, plain, tt.view, isSaved)
			out := buf.String()

			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Fatalf("expected %q in output:\n%s", want, out)
				}
			}
			for _, not := range tt.not {
				if strings.Contains(out, not) {
					t.Fatalf("did not expect %q in output:\n%s", not, out)
				}
			}
		})
	}
}

func TestItemLabel(t *testing.T) {
	item := internship.Internship{Company: "Acme", Role: "Intern", MatchScore: score(80)}

	if got := itemLabel(item, false); got != "Intern at Acme (80%)" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := itemLabel(item, true); got != "Intern at Acme (80%) *" {
		t.Fatalf("unexpected saved label %q", got)
	}
}

func TestReadResume(t *testing.T) {
	fs := afero.NewMemMapFs()
	pdf := []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n")
	if err := afero.WriteFile(fs, "/cv.pdf", pdf, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := readResume(fs, "/cv.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MimeType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", doc.MimeType)
	}

	if _, err := readResume(fs, "/missing.pdf"); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}
