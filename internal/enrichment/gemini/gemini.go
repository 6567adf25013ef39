package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/orgball2608/hashtag-discovery/internal/enrichment"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/fx"
	"google.golang.org/genai"
)

var defaultModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}

var (
	ErrEmptyResponse = errors.New("model returned no content")
	ErrNoModels      = errors.New("no gemini models configured")
)

// Narrator asks Gemini for a place description, falling through the model
// list when a model is rate limited or unavailable.
type Narrator struct {
	models   *genai.Models
	modelIDs []string
	logger   logger.Logger
}

var _ enrichment.Narrator = (*Narrator)(nil)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// New returns a nil Narrator when no API key is configured.
func New(opts Opts) (enrichment.Narrator, error) {
	key := opts.Config.Enrichment.GeminiAPIKey
	if key == "" {
		return nil, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	modelIDs := opts.Config.Enrichment.Models
	if len(modelIDs) == 0 {
		modelIDs = defaultModels
	}

	opts.Logger.Info("Gemini narrator enabled", "models", strings.Join(modelIDs, ","))
	return &Narrator{
		models:   client.Models,
		modelIDs: modelIDs,
		logger:   opts.Logger.WithComponent("Gemini"),
	}, nil
}

func (n *Narrator) Narrate(ctx context.Context, prompt enrichment.Prompt) (string, error) {
	temperature := float32(0.3)
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}
	if prompt.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: prompt.System}}}
	}

	if len(n.modelIDs) == 0 {
		return "", ErrNoModels
	}

	var lastErr error
	for _, model := range n.modelIDs {
		result, err := n.models.GenerateContent(ctx, model, genai.Text(prompt.User), cfg)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if retryable(err) {
				n.logger.Warn("Model unavailable, trying next", "model", model, "error", err)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate with %s: %w", model, err)
		}

		if text := firstText(result); text != "" {
			return text, nil
		}
		lastErr = ErrEmptyResponse
	}

	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func firstText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	content := result.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return ""
	}
	return content.Parts[0].Text
}

func retryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "exhausted", "404", "not found", "503", "unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
