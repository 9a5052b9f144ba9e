package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/homies-app/matchsvc/internal/domain"
	"github.com/homies-app/matchsvc/internal/domain/signal"
	"github.com/homies-app/matchsvc/internal/metrics"
)

const textSystemPrompt = `You analyze a prospective roommate's free-text self-description.
Respond with a single JSON object and nothing else:
{
  "sentiment": <float 0..1, overall positivity of tone>,
  "keywords": [<up to 10 lowercase topic keywords>],
  "personality_traits": [<up to 10 lowercase trait adjectives>],
  "cleanliness_pref": <"low" | "medium" | "high">,
  "confidence": <float 0..1, how much signal the text carried>
}`

// TextAnalyzer extracts text-modality features from a self-description
// via an OpenAI-compatible chat completion API.
type TextAnalyzer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewTextAnalyzer creates a text analyzer.
func NewTextAnalyzer(cfg *Config) *TextAnalyzer {
	return &TextAnalyzer{
		client:   newClient(cfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Modality implements aggregate.Analyzer.
func (a *TextAnalyzer) Modality() domain.Modality {
	return domain.ModalityText
}

// Analyze runs the completion and parses the JSON answer into a
// text-modality observation.
func (a *TextAnalyzer) Analyze(ctx context.Context, ev domain.Evidence) (signal.Observation, error) {
	if strings.TrimSpace(ev.Text) == "" {
		return signal.Observation{}, fmt.Errorf("%w: empty description", domain.ErrInvalidInput)
	}

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: textSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: ev.Text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 1e-8, // go-openai omits 0; pin as low as the field allows
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	modality := string(domain.ModalityText)
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(modality, a.provider, "error").Inc()
		return signal.Observation{}, parseAPIError(err)
	}

	content, err := completionContent(resp)
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(modality, a.provider, "error").Inc()
		return signal.Observation{}, err
	}

	obs, err := parseTextAnalysis(content)
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(modality, a.provider, "error").Inc()
		a.logger.Warn("unparseable text analysis",
			zap.String("model", a.model), zap.Error(err))
		return signal.Observation{}, err
	}

	metrics.AnalysisRequestsTotal.WithLabelValues(modality, a.provider, "success").Inc()
	metrics.AnalysisDuration.WithLabelValues(modality, a.provider).Observe(duration.Seconds())
	return obs, nil
}

// textAnalysisDTO mirrors the JSON the model is instructed to emit.
type textAnalysisDTO struct {
	Sentiment         float64  `json:"sentiment"`
	Keywords          []string `json:"keywords"`
	PersonalityTraits []string `json:"personality_traits"`
	CleanlinessPref   string   `json:"cleanliness_pref"`
	Confidence        float64  `json:"confidence"`
}

// parseTextAnalysis converts the model answer into a schema-conformant
// observation. Model output is untrusted: values are normalized and
// clamped before entering the pipeline.
func parseTextAnalysis(content string) (signal.Observation, error) {
	var dto textAnalysisDTO
	if err := json.Unmarshal([]byte(content), &dto); err != nil {
		return signal.Observation{}, fmt.Errorf("parse text analysis: %w", err)
	}

	features := map[string]signal.Value{
		"sentiment":          signal.Number(clamp01(dto.Sentiment)),
		"keywords":           signal.NewSet(normalizeLabels(dto.Keywords)...),
		"personality_traits": signal.NewSet(normalizeLabels(dto.PersonalityTraits)...),
		"cleanliness_pref":   signal.Category(strings.ToLower(strings.TrimSpace(dto.CleanlinessPref))),
	}
	return signal.NewObservation(features, clamp01(dto.Confidence)), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (a *TextAnalyzer) HealthCheck(ctx context.Context) error {
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// normalizeLabels lowercases and trims label lists, dropping empties.
func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if normalized := strings.ToLower(strings.TrimSpace(l)); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
