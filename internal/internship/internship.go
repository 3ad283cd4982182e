package internship

import (
	"slices"
	"time"
)

// Internship is a single listing. Identity is the (company, role) pair.
type Internship struct {
	Company        string   `json:"company" mapstructure:"company"`
	Role           string   `json:"role" mapstructure:"role"`
	Field          string   `json:"field" mapstructure:"field"`
	SkillsRequired []string `json:"skillsRequired" mapstructure:"skillsRequired"`
	Location       string   `json:"location" mapstructure:"location"`
	Description    string   `json:"description" mapstructure:"description"`
	MatchScore     *int     `json:"matchScore,omitempty" mapstructure:"matchScore"`
	Reasoning      string   `json:"reasoning,omitempty" mapstructure:"reasoning"`
}

// Key identifies an internship for lookup and deduplication.
type Key struct {
	Company string
	Role    string
}

func (i Internship) Key() Key {
	return Key{Company: i.Company, Role: i.Role}
}

// Score returns the match score, treating a missing one as 0.
func (i Internship) Score() int {
	if i.MatchScore == nil {
		return 0
	}
	return *i.MatchScore
}

// Scored reports whether a recommendation result has been applied.
func (i Internship) Scored() bool {
	return i.MatchScore != nil
}

// WithScore returns a copy carrying the given score and reasoning.
func (i Internship) WithScore(score int, reasoning string) Internship {
	i.MatchScore = &score
	i.Reasoning = reasoning
	return i
}

// Clone returns a deep copy.
func (i Internship) Clone() Internship {
	i.SkillsRequired = slices.Clone(i.SkillsRequired)
	if i.MatchScore != nil {
		score := *i.MatchScore
		i.MatchScore = &score
	}
	return i
}

// UserProfile is the applicant side of a recommendation request.
type UserProfile struct {
	FullName     string    `json:"fullName" validate:"required"`
	Email        string    `json:"email" validate:"required,contains=@"`
	FieldOfStudy string    `json:"fieldOfStudy" validate:"required"`
	Skills       string    `json:"skills" validate:"required"`
	ResumeFile   *Document `json:"resumeFile"`
}

// CachedListingSet is the persisted form of the baseline listings.
type CachedListingSet struct {
	// Timestamp is the creation time in epoch milliseconds.
	Timestamp   int64        `json:"timestamp"`
	Internships []Internship `json:"internships"`
}

// NewCachedListingSet stamps the listings with the provided time.
func NewCachedListingSet(now time.Time, internships []Internship) *CachedListingSet {
	if internships == nil {
		internships = []Internship{}
	}
	return &CachedListingSet{
		Timestamp:   now.UnixMilli(),
		Internships: internships,
	}
}

// Valid reports whether the set is younger than ttl and non-empty.
func (c *CachedListingSet) Valid(now time.Time, ttl time.Duration) bool {
	if c == nil || len(c.Internships) == 0 {
		return false
	}
	age := now.UnixMilli() - c.Timestamp
	return age < ttl.Milliseconds()
}
