// Package vision classifies fashion photos with a multimodal model, either
// through an OpenAI-compatible chat endpoint or a local Ollama server.
package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/owningthelook/backend/internal/domain"
)

// Prompt is sent alongside the image
var Prompt = "Analyze this fashion image. Identify the main item and other detected clothing. " +
	"For every item return its category (one of: " + strings.Join(domain.Categories, ", ") + "), " +
	"a short product title, its color, its material and a concise shopping search query. Return JSON."

// itemSchema describes one garment in the model's answer
func itemSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"category": {Type: jsonschema.String, Enum: domain.Categories},
			"title":    {Type: jsonschema.String},
			"color":    {Type: jsonschema.String},
			"material": {Type: jsonschema.String},
			"query":    {Type: jsonschema.String},
		},
		Required:             []string{"category", "title", "color", "material", "query"},
		AdditionalProperties: false,
	}
}

// Schema is the JSON schema the model is constrained to
func Schema() jsonschema.Definition {
	item := itemSchema()
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"mainItem":      item,
			"detectedItems": {Type: jsonschema.Array, Items: &item},
		},
		Required:             []string{"mainItem", "detectedItems"},
		AdditionalProperties: false,
	}
}

// rawAnalysis keeps mainItem as a pointer so its absence is detectable
type rawAnalysis struct {
	MainItem      *domain.FashionItem  `json:"mainItem"`
	DetectedItems []domain.FashionItem `json:"detectedItems"`
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// parseAnalysis decodes the model's answer. A missing mainItem is an error;
// missing detectedItems is an empty list.
func parseAnalysis(raw string) (*domain.AnalysisResult, error) {
	cleaned := sanitizeModelJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, fmt.Errorf("%w: no JSON object in model output", domain.ErrInvalidAnalysis)
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAnalysis, err)
	}
	if parsed.MainItem == nil {
		return nil, fmt.Errorf("%w: mainItem missing", domain.ErrInvalidAnalysis)
	}

	detected := parsed.DetectedItems
	if detected == nil {
		detected = []domain.FashionItem{}
	}
	return &domain.AnalysisResult{MainItem: *parsed.MainItem, DetectedItems: detected}, nil
}

// sanitizeModelJSON removes code fences, comments and trailing commas
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
