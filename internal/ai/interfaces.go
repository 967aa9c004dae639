package ai

import (
	"context"

	"resumefit/internal/analysis"

	"google.golang.org/genai"
)

// models is the subset of the genai Models service the augmenter calls
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// UsageObserver receives token usage for every successful remote call
type UsageObserver func(kind analysis.NarrativeKind, usage TokenUsage)

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// HealthReporter is implemented by augmenters that can report remote health
type HealthReporter interface {
	ModelInfo(ctx context.Context) *ModelInfo
	BreakerState() string
}
