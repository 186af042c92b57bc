package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/owningthelook/backend/internal/domain"
)

// OllamaClassifier classifies with a local multimodal model served by Ollama
type OllamaClassifier struct {
	client *api.Client
	model  string
	format json.RawMessage
}

// NewOllamaClassifier creates a classifier for the Ollama server at ollamaURL
func NewOllamaClassifier(ollamaURL, model string, timeout time.Duration) (*OllamaClassifier, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid ollama URL %q", ollamaURL)
	}

	// Drop any path such as /api/chat
	baseURL := &url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host}

	schema := Schema()
	format, err := json.Marshal(&schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	return &OllamaClassifier{
		client: api.NewClient(baseURL, &http.Client{Timeout: timeout}),
		model:  model,
		format: format,
	}, nil
}

// Classify sends the raw image bytes with the schema as the output format
func (c *OllamaClassifier) Classify(ctx context.Context, imageBase64 string) (*domain.AnalysisResult, error) {
	imgBytes, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedImage, err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: Prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
		Format: c.format,
	}

	start := time.Now()
	var content strings.Builder
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama chat error: %v", domain.ErrVisionFailure, err)
	}
	log.Printf("[Vision] ollama %s answered in %v", c.model, time.Since(start))

	if content.Len() == 0 {
		return nil, fmt.Errorf("%w: empty response from ollama", domain.ErrInvalidAnalysis)
	}

	return parseAnalysis(content.String())
}
