package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/models"
)

type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIClient(cfg *config.Config) (*OpenAIClient, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	return &OpenAIClient{
		client:      &client,
		model:       cfg.LLM.Model,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
	}, nil
}

func (o *OpenAIClient) Analyze(ctx context.Context, digest string, _ models.BundleOverview) (*models.AnalysisResult, error) {
	text, err := o.complete(ctx, buildAnalysisPrompt(digest))
	if err != nil {
		return nil, err
	}

	result := parseAnalysis(text)
	result.Model = o.model
	return result, nil
}

func (o *OpenAIClient) Ask(ctx context.Context, digest, question string, history []models.ChatMessage) (string, error) {
	return o.complete(ctx, buildQuestionPrompt(digest, question, history))
}

// Health is a no-op for the direct provider: key presence is validated at
// construction and there is no cheap probe endpoint.
func (o *OpenAIClient) Health(ctx context.Context) error {
	return nil
}

func (o *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(o.maxTokens)),
		Temperature: openai.Float(float64(o.temperature)),
	})

	if err != nil {
		return "", fmt.Errorf("openai API call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return completion.Choices[0].Message.Content, nil
}
