package internship

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCachedListingSetValid(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)
	ttl := 30 * time.Minute
	items := []Internship{{Company: "A", Role: "dev"}}

	tests := []struct {
		name  string
		set   *CachedListingSet
		valid bool
	}{
		{name: "nil", set: nil, valid: false},
		{name: "fresh", set: NewCachedListingSet(now.Add(-time.Minute), items), valid: true},
		{name: "just below ttl", set: NewCachedListingSet(now.Add(-ttl+time.Millisecond), items), valid: true},
		{name: "exactly ttl", set: NewCachedListingSet(now.Add(-ttl), items), valid: false},
		{name: "stale", set: NewCachedListingSet(now.Add(-2*ttl), items), valid: false},
		{name: "empty", set: NewCachedListingSet(now, nil), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.set.Valid(now, ttl); got != tt.valid {
				t.Fatalf("expected valid=%v, got %v", tt.valid, got)
			}
		})
	}
}

func TestInternshipJSONShape(t *testing.T) {
	t.Parallel()

	unscored, err := json.Marshal(Internship{Company: "A", Role: "dev"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(unscored), "matchScore") || strings.Contains(string(unscored), "reasoning") {
		t.Fatalf("expected score fields to be omitted, got %s", unscored)
	}

	scored, err := json.Marshal(Internship{Company: "A", Role: "dev"}.WithScore(0, "weak"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(scored), `"matchScore":0`) {
		t.Fatalf("expected zero score to be kept, got %s", scored)
	}
}

func TestEncodeDocument(t *testing.T) {
	t.Parallel()

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	doc, err := EncodeDocument(pdf, "resume.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MimeType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", doc.MimeType)
	}

	decoded, err := doc.Bytes()
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if string(decoded) != string(pdf) {
		t.Fatalf("round trip mismatch")
	}

	if _, err := EncodeDocument(nil, "resume.pdf"); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestDocumentEmpty(t *testing.T) {
	t.Parallel()

	var missing *Document
	if !missing.Empty() {
		t.Fatal("expected nil document to be empty")
	}
	if !(&Document{MimeType: "application/pdf", Data: "  "}).Empty() {
		t.Fatal("expected blank data to be empty")
	}
	if (&Document{MimeType: "application/pdf", Data: "QQ=="}).Empty() {
		t.Fatal("expected document with data to be non-empty")
	}
}
