package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/owningthelook/backend/internal/domain"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// OpenAIClassifier classifies through any OpenAI-compatible chat completion API
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewOpenAIClassifier creates a classifier. An empty apiKey is accepted;
// every Classify call then fails with ErrVisionNotConfigured.
func NewOpenAIClassifier(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = baseURL
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		apiKey: apiKey,
	}
}

// Classify sends the image with a strict JSON schema response format
func (c *OpenAIClassifier) Classify(ctx context.Context, imageBase64 string) (*domain.AnalysisResult, error) {
	if c.apiKey == "" {
		return nil, domain.ErrVisionNotConfigured
	}

	schema := Schema()
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + imageBase64,
							Detail: openai.ImageURLDetailAuto,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: Prompt,
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "fashion_analysis",
				Schema: &schema,
				Strict: true,
			},
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			log.Printf("[Vision] %s returned %d: %s", c.model, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrVisionFailure, err)
	}
	log.Printf("[Vision] %s answered in %v", c.model, time.Since(start))

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", domain.ErrInvalidAnalysis)
	}

	return parseAnalysis(resp.Choices[0].Message.Content)
}
