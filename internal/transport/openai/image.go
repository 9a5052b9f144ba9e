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

const imageSystemPrompt = `You analyze a photo of a prospective roommate's living space.
Respond with a single JSON object and nothing else:
{
  "cleanliness_score": <float 0..1, how clean and tidy the space looks>,
  "detected_objects": [<up to 10 lowercase names of notable objects>],
  "room_style": <"minimal" | "cozy" | "eclectic" | "cluttered">,
  "confidence": <float 0..1, how clearly the photo shows the space>
}`

// ImageAnalyzer extracts image-modality features from living-space
// photos via a vision-capable chat completion API.
type ImageAnalyzer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewImageAnalyzer creates an image analyzer.
func NewImageAnalyzer(cfg *Config) *ImageAnalyzer {
	return &ImageAnalyzer{
		client:   newClient(cfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Modality implements aggregate.Analyzer.
func (a *ImageAnalyzer) Modality() domain.Modality {
	return domain.ModalityImage
}

// Analyze sends the photo URL to the vision model and parses the JSON
// answer into an image-modality observation.
func (a *ImageAnalyzer) Analyze(ctx context.Context, ev domain.Evidence) (signal.Observation, error) {
	if strings.TrimSpace(ev.ImageURL) == "" {
		return signal.Observation{}, fmt.Errorf("%w: empty image URL", domain.ErrInvalidInput)
	}

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: imageSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: ev.ImageURL},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 1e-8,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	modality := string(domain.ModalityImage)
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(modality, a.provider, "error").Inc()
		return signal.Observation{}, parseAPIError(err)
	}

	content, err := completionContent(resp)
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(modality, a.provider, "error").Inc()
		return signal.Observation{}, err
	}

	obs, err := parseImageAnalysis(content)
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(modality, a.provider, "error").Inc()
		a.logger.Warn("unparseable image analysis",
			zap.String("model", a.model), zap.Error(err))
		return signal.Observation{}, err
	}

	metrics.AnalysisRequestsTotal.WithLabelValues(modality, a.provider, "success").Inc()
	metrics.AnalysisDuration.WithLabelValues(modality, a.provider).Observe(duration.Seconds())
	return obs, nil
}

// imageAnalysisDTO mirrors the JSON the model is instructed to emit.
type imageAnalysisDTO struct {
	CleanlinessScore float64  `json:"cleanliness_score"`
	DetectedObjects  []string `json:"detected_objects"`
	RoomStyle        string   `json:"room_style"`
	Confidence       float64  `json:"confidence"`
}

// parseImageAnalysis converts the model answer into a schema-conformant
// observation.
func parseImageAnalysis(content string) (signal.Observation, error) {
	var dto imageAnalysisDTO
	if err := json.Unmarshal([]byte(content), &dto); err != nil {
		return signal.Observation{}, fmt.Errorf("parse image analysis: %w", err)
	}

	features := map[string]signal.Value{
		"cleanliness_score": signal.Number(clamp01(dto.CleanlinessScore)),
		"detected_objects":  signal.NewSet(normalizeLabels(dto.DetectedObjects)...),
		"room_style":        signal.Category(strings.ToLower(strings.TrimSpace(dto.RoomStyle))),
	}
	return signal.NewObservation(features, clamp01(dto.Confidence)), nil
}
