package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"resumefit/internal/analysis"
	"resumefit/internal/config"
	"resumefit/internal/errors"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// GeminiAugmenter implements analysis.Augmenter with Google Gemini
type GeminiAugmenter struct {
	models    models
	cfg       config.AIConfig
	prompts   config.LoadedPrompts
	breaker   *Breaker[*genai.GenerateContentResponse]
	onUsage   UsageObserver
	baseDelay time.Duration
	logger    *errors.Logger
}

var (
	_ analysis.Augmenter = (*GeminiAugmenter)(nil)
	_ HealthReporter     = (*GeminiAugmenter)(nil)
)

// GeminiOption customizes a GeminiAugmenter
type GeminiOption func(*GeminiAugmenter)

// WithUsageObserver reports token usage after each successful call
func WithUsageObserver(fn UsageObserver) GeminiOption {
	return func(g *GeminiAugmenter) { g.onUsage = fn }
}

// WithPrompts overrides the built-in prompts
func WithPrompts(p config.LoadedPrompts) GeminiOption {
	return func(g *GeminiAugmenter) { g.prompts = p }
}

// NewGeminiAugmenter creates a Gemini client for narrative generation
func NewGeminiAugmenter(ctx context.Context, cfg config.AIConfig, logger *errors.Logger, opts ...GeminiOption) (*GeminiAugmenter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeRemoteUnavailable, "Failed to create Gemini client", err)
	}
	return newGeminiAugmenter(client.Models, cfg, logger, opts...), nil
}

func newGeminiAugmenter(m models, cfg config.AIConfig, logger *errors.Logger, opts ...GeminiOption) *GeminiAugmenter {
	g := &GeminiAugmenter{
		models:    m,
		cfg:       cfg,
		breaker:   NewBreaker[*genai.GenerateContentResponse]("Narrative", cfg.CircuitBreaker, logger),
		baseDelay: time.Second,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements analysis.Augmenter
func (g *GeminiAugmenter) Name() string { return "gemini" }

// BreakerState reports the narrative circuit breaker state
func (g *GeminiAugmenter) BreakerState() string { return g.breaker.State() }

// Generate implements analysis.Augmenter for free-text narratives
func (g *GeminiAugmenter) Generate(ctx context.Context, req analysis.NarrativeRequest) (string, error) {
	switch req.Kind {
	case analysis.KindOverallFeedback, analysis.KindImprovedVersion:
	default:
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported narrative kind for text generation: %s", req.Kind), nil)
	}

	result, err := g.execute(ctx, req, g.textConfig())
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.NewAIError(errors.ErrCodeInvalidResponse, "Empty narrative returned for "+string(req.Kind), nil)
	}
	return text, nil
}

// Insights implements analysis.Augmenter for structured insights
func (g *GeminiAugmenter) Insights(ctx context.Context, req analysis.NarrativeRequest) (analysis.Insights, error) {
	req.Kind = analysis.KindInsights

	result, err := g.execute(ctx, req, g.insightsConfig())
	if err != nil {
		return analysis.Insights{}, err
	}

	var out analysis.Insights
	if err := json.Unmarshal([]byte(result.Text()), &out); err != nil {
		return analysis.Insights{}, errors.NewAIError(errors.ErrCodeInvalidResponse, "Failed to parse insights response", err)
	}
	return out, nil
}

// execute runs one narrative call with tracing, circuit breaker and retry
func (g *GeminiAugmenter) execute(ctx context.Context, req analysis.NarrativeRequest, genCfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, span := otel.Tracer("resumefit.ai.gemini").Start(ctx, "gemini."+string(req.Kind))
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.cfg.Model),
		attribute.Float64("ai.temperature", float64(g.cfg.Temperature)),
		attribute.Int("input.resume_length", len(req.ResumeText)),
		attribute.Int("input.job_length", len(req.JobText)),
	)

	systemOverride, userOverride := g.prompts.For(req.Kind)
	if g.cfg.UseSystemPrompts {
		if system := resolvePrompt(systemOverride, DefaultSystemPrompts[req.Kind]); system != "" {
			genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}
	}
	userPrompt := renderUserPrompt(resolvePrompt(userOverride, DefaultUserPrompts[req.Kind]), req)

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, string(req.Kind), func() (*genai.GenerateContentResponse, error) {
			return g.models.GenerateContent(ctx, g.cfg.Model, genai.Text(userPrompt), genCfg)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, classifyRemoteError(err, string(req.Kind))
	}

	if usage := extractTokenUsage(result); usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
		if g.onUsage != nil {
			g.onUsage(req.Kind, *usage)
		}
	}

	span.SetAttributes(attribute.Bool("success", true))
	return result, nil
}

// executeWithRetry retries retryable failures with exponential backoff and jitter
func (g *GeminiAugmenter) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	maxRetries := g.cfg.EffectiveRetries()
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	return nil, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// backoff doubles baseDelay per attempt with up to 10% jitter, capped at 30 seconds
func (g *GeminiAugmenter) backoff(attempt int) time.Duration {
	delay := g.baseDelay << (attempt - 1)
	if limit := int64(delay / 10); limit > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(limit)); err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}
	return min(delay, 30*time.Second)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return isRetryableStatus(genaiErr.Code)
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// classifyRemoteError maps transport failures onto the augmenter error codes
func classifyRemoteError(err error, operation string) error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.As(err, &netErr) && netErr.Timeout():
		return errors.NewAIError(errors.ErrCodeRemoteTimeout, "Gemini call timed out for "+operation, err)
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewAIError(errors.ErrCodeRemoteUnavailable, "Gemini circuit breaker open for "+operation, err)
	default:
		return errors.NewAIError(errors.ErrCodeRemoteUnavailable, "Failed to generate content for "+operation, err)
	}
}

func (g *GeminiAugmenter) textConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "text/plain"}
	if g.cfg.Temperature > 0 {
		cfg.Temperature = genai.Ptr(g.cfg.Temperature)
	}
	return cfg
}

// insightsConfig requests JSON matching analysis.Insights
func (g *GeminiAugmenter) insightsConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"strengths": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"weaknesses": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"suggestions": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"category":        {Type: genai.TypeString},
							"priority":        {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
							"text":            {Type: genai.TypeString},
							"estimatedImpact": {Type: genai.TypeString},
						},
						Required: []string{"category", "priority", "text"},
					},
				},
			},
			Required: []string{"strengths", "weaknesses", "suggestions"},
		},
	}
	if g.cfg.Temperature > 0 {
		cfg.Temperature = genai.Ptr(g.cfg.Temperature)
	}
	return cfg
}

// ModelInfo checks the readiness and availability of the configured model
func (g *GeminiAugmenter) ModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.cfg.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.models.Get(checkCtx, g.cfg.Model, &genai.GetModelConfig{})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed", "model", g.cfg.Model, "error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
