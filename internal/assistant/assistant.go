package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kbenhida/leadbot/internal/models"
)

// Assistant produces the conversational reply for one user turn.
type Assistant interface {
	Reply(ctx context.Context, history []models.ChatMessage, message string) (string, error)
}

const systemPrompt = `Tu es l'assistant virtuel d'un consultant digital indépendant basé à Casablanca.
Tu aides les visiteurs du site à préciser leur projet web : création de sites, e-commerce, SEO, automatisation et CRM.
Réponds en français, de façon concise et professionnelle (3 phrases maximum).
Pose une question de relance quand le besoin du visiteur n'est pas encore clair.
Ne promets jamais de prix ferme : un devis nécessite un échange avec le consultant.`

// maxHistoryTurns caps how much client-supplied history is forwarded to the
// model. The widget already trims to the last 10 entries; this guards
// against misbehaving callers.
const maxHistoryTurns = 10

// OpenAIAssistant generates replies through the OpenAI chat completion API.
type OpenAIAssistant struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

func NewOpenAIAssistant(apiKey, model string, maxTokens int, temperature float64, timeout time.Duration, logger *zap.Logger) (*OpenAIAssistant, error) {
	if apiKey == "" {
		return nil, errors.New("assistant: missing OpenAI API key")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIAssistant{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

func (a *OpenAIAssistant) Reply(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	messages := buildMessages(history, message)

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       a.model,
			Messages:    messages,
			MaxTokens:   a.maxTokens,
			Temperature: float32(a.temperature),
		},
	)
	if err != nil {
		a.logger.Error("Failed to get chat completion", zap.Error(err))
		return "", fmt.Errorf("assistant: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("assistant: empty completion response")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("assistant: blank completion content")
	}
	return reply, nil
}

// buildMessages assembles the completion request: persona prompt, the most
// recent history turns, then the current message.
func buildMessages(history []models.ChatMessage, message string) []openai.ChatCompletionMessage {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, h := range history {
		role := openai.ChatMessageRoleUser
		if h.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: h.Content,
		})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
}
