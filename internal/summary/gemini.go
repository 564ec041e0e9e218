package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	genai "google.golang.org/genai"

	"github.com/gaslibhub/crawler/internal/domain"
)

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("summary: empty response from model")

// maxReadmeChars bounds how much README text is sent to the model.
const maxReadmeChars = 8000

const summaryPrompt = `Summarize the Google Apps Script project below in 2-3
plain sentences for a library catalog. Describe what it does and who would
use it. Do not mention the README itself.`

// GeminiService generates catalog summaries with the Gemini API.
type GeminiService struct {
	cli   *genai.Client
	model string
	log   *slog.Logger
}

// NewGeminiService creates a summary service bound to the given model.
func NewGeminiService(ctx context.Context, apiKey, model string, log *slog.Logger) (*GeminiService, error) {
	if log == nil {
		log = slog.Default()
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiService{cli: cli, model: model, log: log}, nil
}

// Generate produces a summary for the repository at sourceURL. The readme
// excerpt is optional context. Retries with backoff on transient failures.
func (s *GeminiService) Generate(ctx context.Context, sourceURL, readme string) (*domain.Summary, error) {
	if len(readme) > maxReadmeChars {
		readme = readme[:maxReadmeChars]
	}
	input := fmt.Sprintf("%s\n\nRepository: %s\n\nREADME:\n%s", summaryPrompt, sourceURL, readme)

	var out *domain.Summary
	attempt := 0
	err := retry(ctx, 3, 300*time.Millisecond, func() error {
		attempt++
		resp, err := s.cli.Models.GenerateContent(ctx, s.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: input}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "text/plain"},
		)
		if err == nil && (len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0) {
			err = ErrEmptyResponse
		}
		if err != nil {
			s.log.Warn("summary generation attempt failed", "source", sourceURL, "attempt", attempt, "error", err)
			return err
		}
		out = &domain.Summary{
			Content:   resp.Candidates[0].Content.Parts[0].Text,
			Model:     s.model,
			CreatedAt: time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// retry runs op up to attempts times, doubling the backoff between
// attempts starting from base. No delay follows the final failure.
func retry(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(base << attempt):
		}
	}
	return lastErr
}
