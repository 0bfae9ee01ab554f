package services

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// SummaryFallback is returned whenever summarization fails or is disabled.
const SummaryFallback = "New message"

// SummaryGenerator produces a short preview of a message for push
// notifications. Implementations never block the caller on failure; they
// return a static fallback instead.
type SummaryGenerator interface {
	Summarize(ctx context.Context, text string) string
}

// OpenAISummaryService summarizes message text with a chat-completion call.
type OpenAISummaryService struct {
	Client *openai.Client
	Model  string
	Log    *zap.Logger
}

func NewOpenAISummaryService(apiKey string, log *zap.Logger) *OpenAISummaryService {
	return &OpenAISummaryService{
		Client: openai.NewClient(apiKey),
		Model:  openai.GPT4oMini,
		Log:    log,
	}
}

func (s *OpenAISummaryService) Summarize(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return SummaryFallback
	}

	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.Model,
		MaxTokens: 40,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Summarize the following chat message in one short sentence for a notification preview. Do not add commentary.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		s.Log.Warn("summary generation failed", zap.Error(err))
		return SummaryFallback
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return SummaryFallback
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// StaticSummaryService always returns the fallback. Used when no API key is
// configured.
type StaticSummaryService struct{}

func (StaticSummaryService) Summarize(ctx context.Context, text string) string {
	return SummaryFallback
}
