package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/effort-cli/internal/config"
	"github.com/sells-group/effort-cli/internal/model"
	"github.com/sells-group/effort-cli/internal/resilience"
	"github.com/sells-group/effort-cli/pkg/anthropic"
)

// ClassifyRequest asks for a rating of one cost driver.
type ClassifyRequest struct {
	Driver      model.Driver
	Description string
	Levels      []model.Level
}

// Classifier infers a rating for a cost driver. The answer is untrusted and
// validated by the caller. Implementations should return once ctx is done;
// callers stop waiting at the deadline either way.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (string, error)
}

// ErrClassifierUnavailable is returned by UnavailableClassifier.
var ErrClassifierUnavailable = eris.New("resolve: classifier not configured")

// UnavailableClassifier fails every call, so unresolved drivers fall back to
// the neutral rating. Used when no API key is configured.
type UnavailableClassifier struct{}

// Classify always returns ErrClassifierUnavailable.
func (UnavailableClassifier) Classify(context.Context, ClassifyRequest) (string, error) {
	return "", ErrClassifierUnavailable
}

const classifySystemPrompt = "You are a precise software project estimation analyst. Provide ONLY the specified value."

const classifyUserPrompt = `TASK: Software project cost driver analysis.

Assign an impact rating to the cost driver below based on its characteristics.

COST DRIVER:
- Driver name: %s
- Description: %s

RATING SCALE (use these values only):
%s

INSTRUCTIONS:
1. Select exactly one rating from the scale.
2. Your entire response must be exactly one of: %s
3. Do not include any other text, punctuation or explanation.

RESPONSE:`

// levelGuidance describes each rating level in the prompt.
var levelGuidance = map[model.Level]string{
	model.LevelVeryLow:   "minimum impact, lowest complexity, minimal additional effort",
	model.LevelLow:       "slight complexity, minimal additional challenges",
	model.LevelNominal:   "standard, average complexity, typical project considerations",
	model.LevelHigh:      "significant complexity, substantial additional effort",
	model.LevelVeryHigh:  "extensive complexity, major challenges expected",
	model.LevelExtraHigh: "extreme complexity, potentially project-critical challenges",
}

// BuildPrompt renders the user prompt for a classification request.
func BuildPrompt(req ClassifyRequest) string {
	var scale strings.Builder
	names := make([]string, len(req.Levels))
	for i, lvl := range req.Levels {
		names[i] = string(lvl)
		fmt.Fprintf(&scale, "- %s: %s\n", lvl, levelGuidance[lvl])
	}
	desc := req.Description
	if desc == "" {
		desc = "No description available"
	}
	return fmt.Sprintf(classifyUserPrompt, req.Driver, desc, strings.TrimRight(scale.String(), "\n"), strings.Join(names, ", "))
}

// AnthropicClassifier asks a Claude model for driver ratings. Calls are rate
// limited, retried on transient API errors and short-circuited while the API
// keeps failing.
type AnthropicClassifier struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	retry       resilience.RetryConfig
	breaker     *resilience.CircuitBreaker
	limiter     *rate.Limiter
}

// NewAnthropicClassifier creates a classifier from config.
func NewAnthropicClassifier(client anthropic.Client, aiCfg config.AnthropicConfig, clsCfg config.ClassifierConfig) *AnthropicClassifier {
	limit := rate.Inf
	if clsCfg.RequestsPerSecond > 0 {
		limit = rate.Limit(clsCfg.RequestsPerSecond)
	}
	burst := clsCfg.Burst
	if burst <= 0 {
		burst = 1
	}

	maxTokens := aiCfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 10
	}

	return &AnthropicClassifier{
		client:      client,
		model:       aiCfg.Model,
		maxTokens:   maxTokens,
		temperature: aiCfg.Temperature,
		retry: resilience.RetryConfig{
			MaxAttempts: clsCfg.MaxAttempts,
			OnRetry:     resilience.RetryLogger("anthropic", "classify"),
		},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "anthropic",
			FailureThreshold: clsCfg.BreakerThreshold,
			Cooldown:         time.Duration(clsCfg.BreakerCooldownSecs) * time.Second,
		}),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Classify sends one rating request and returns the raw text answer.
func (c *AnthropicClassifier) Classify(ctx context.Context, req ClassifyRequest) (string, error) {
	msgReq := anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      classifySystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: BuildPrompt(req)}},
		Temperature: &c.temperature,
	}

	resp, err := resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "resolve: rate limit wait")
			}
			return c.client.CreateMessage(ctx, msgReq)
		})
	})
	if err != nil {
		return "", eris.Wrapf(err, "resolve: classify %s", req.Driver)
	}

	resp.Usage.LogCost(c.model, "classify_cost_driver")
	zap.L().Debug("resolve: classifier answered",
		zap.String("driver", string(req.Driver)),
		zap.String("answer", resp.Text()),
	)
	return resp.Text(), nil
}
