package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/internify/internal/ai"
	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/logger"
	"github.com/spigell/internify/internal/utils"
)

//go:embed generate.md
var generatePromptTemplate string

//go:embed recommend.md
var recommendPromptTemplate string

const (
	// DefaultListingCount is how many listings a generate call asks for.
	DefaultListingCount = 12
	defaultMaxLogLength = 200
	maxScore            = 100
)

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, req Request) (string, error)
	Model() string
}

// Recommender implements ai.Gateway on top of Gemini.
type Recommender struct {
	generator    jsonGenerator
	logger       *zap.Logger
	maxLogLen    int
	listingCount int
}

var _ ai.Gateway = (*Recommender)(nil)

func NewRecommender(generator jsonGenerator, log *zap.Logger, maxLogLength int) *Recommender {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Recommender{
		generator:    generator,
		logger:       logger.WithCommonFields(log, "gemini", generator.Model()),
		maxLogLen:    maxLogLength,
		listingCount: DefaultListingCount,
	}
}

// SetListingCount overrides how many listings Generate asks for.
func (r *Recommender) SetListingCount(n int) {
	if n > 0 {
		r.listingCount = n
	}
}

func (r *Recommender) Generate(ctx context.Context) ([]internship.Internship, error) {
	prompt := strings.ReplaceAll(generatePromptTemplate, "{{COUNT}}", strconv.Itoa(r.listingCount))

	raw, err := r.call(ctx, ai.ActionGenerate, Request{
		Prompt: prompt,
		Schema: listingSchema(false),
	})
	if err != nil {
		return nil, err
	}

	listings, err := parseListings(raw)
	if err != nil {
		return nil, err
	}

	for idx := range listings {
		listings[idx].MatchScore = nil
		listings[idx].Reasoning = ""
	}

	return listings, nil
}

func (r *Recommender) Recommend(ctx context.Context, profile *internship.UserProfile, listings []internship.Internship) ([]internship.Internship, error) {
	if profile == nil {
		return nil, errors.New("user profile is required")
	}
	if profile.ResumeFile.Empty() {
		return nil, errors.New("resume file is required")
	}
	if listings == nil {
		return nil, errors.New("internships are required")
	}

	listingsJSON, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal internships: %w", err)
	}

	raw, err := r.call(ctx, ai.ActionRecommend, Request{
		Prompt:   buildRecommendPrompt(profile, string(listingsJSON)),
		Document: profile.ResumeFile,
		Schema:   listingSchema(true),
	})
	if err != nil {
		return nil, err
	}

	results, err := parseListings(raw)
	if err != nil {
		return nil, err
	}

	for idx := range results {
		score := min(max(results[idx].Score(), 0), maxScore)
		results[idx].MatchScore = &score
	}

	internship.Rank(results)
	top, dropped := internship.Top(results, ai.MaxRecommendations)
	if dropped > 0 {
		r.logger.Debug("dropping recommendations beyond the limit", zap.Int("dropped", dropped))
	}

	return top, nil
}

func (r *Recommender) call(ctx context.Context, action string, req Request) (string, error) {
	r.logger.Debug("gemini generate content request",
		zap.String("action", action),
		zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(req.Prompt, r.maxLogLen)),
		zap.Bool("with_document", !req.Document.Empty()),
	)

	raw, err := r.generator.GenerateJSON(ctx, req)
	if err != nil {
		return "", err
	}

	r.logger.Debug("gemini generate content response",
		zap.String("action", action),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	return raw, nil
}

func buildRecommendPrompt(profile *internship.UserProfile, listingsJSON string) string {
	replacer := strings.NewReplacer(
		"{{FIELD_OF_STUDY}}", singleLine(profile.FieldOfStudy),
		"{{SKILLS}}", singleLine(profile.Skills),
		"{{INTERNSHIPS_JSON}}", listingsJSON,
		"{{TOP}}", strconv.Itoa(ai.MaxRecommendations),
	)
	return replacer.Replace(recommendPromptTemplate)
}

func singleLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "not provided"
	}
	return s
}

func listingSchema(scored bool) *genai.Schema {
	properties := map[string]*genai.Schema{
		"company":        {Type: genai.TypeString},
		"role":           {Type: genai.TypeString},
		"field":          {Type: genai.TypeString},
		"skillsRequired": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"location":       {Type: genai.TypeString},
		"description":    {Type: genai.TypeString},
	}
	required := []string{"company", "role", "field", "skillsRequired", "location", "description"}

	if scored {
		properties["matchScore"] = &genai.Schema{
			Type:        genai.TypeInteger,
			Description: "A score from 0-100 indicating the match quality.",
		}
		properties["reasoning"] = &genai.Schema{
			Type:        genai.TypeString,
			Description: "A brief, one-sentence explanation for the score.",
		}
		required = append(required, "matchScore", "reasoning")
	}

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   required,
		},
	}
}

// parseListings decodes a model answer leniently: code fences are stripped,
// a wrapping object is unwrapped and scalar types are coerced.
func parseListings(raw string) ([]internship.Internship, error) {
	cleaned := extractJSON(raw)

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	if obj, ok := decoded.(map[string]any); ok {
		decoded = obj["internships"]
	}

	records, ok := decoded.([]any)
	if !ok {
		return nil, errors.New("parse gemini response: expected a JSON array")
	}

	listings := make([]internship.Internship, 0, len(records))
	for idx, record := range records {
		var item internship.Internship
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &item,
		})
		if err != nil {
			return nil, fmt.Errorf("create decoder: %w", err)
		}
		if err := decoder.Decode(record); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", idx, err)
		}

		item.Company = strings.TrimSpace(item.Company)
		item.Role = strings.TrimSpace(item.Role)
		if item.Company == "" || item.Role == "" {
			continue
		}

		listings = append(listings, item)
	}

	return listings, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
