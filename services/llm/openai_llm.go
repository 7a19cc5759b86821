package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ProviderOpenAI is the secondary provider tag.
const ProviderOpenAI = "openai"

// DefaultOpenAIModel and DefaultOpenAIBaseURL are used when unset.
const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIConfig configures the chat-completion client.
type OpenAIConfig struct {
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Params     GenerationParams
}

// OpenAIClient calls any OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	config OpenAIConfig
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
		slog.Warn("OPENAI_MODEL not set, defaulting", slog.String("model", cfg.Model))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Params == (GenerationParams{}) {
		cfg.Params = DefaultGenerationParams
	}
	return &OpenAIClient{config: cfg}
}

func (o *OpenAIClient) Name() string { return ProviderOpenAI }

// Complete implements ProviderClient. Only HTTP 429 marks an attempt as
// rate-limited for this provider.
func (o *OpenAIClient) Complete(ctx context.Context, cred Credential, req QueryRequest) (string, error) {
	key, err := cred.Reveal()
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: err.Error(), Err: err}
	}

	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = strings.TrimRight(o.config.BaseURL, "/")
	if o.config.HTTPClient != nil {
		cfg.HTTPClient = o.config.HTTPClient
	}
	client := openai.NewClientWithConfig(cfg)

	chatReq := openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Messages:    chatMessages(req),
		Temperature: o.config.Params.Temperature,
		MaxTokens:   int(o.config.Params.MaxOutputTokens),
	}

	slog.Debug("Generating text via OpenAI", slog.String("model", o.config.Model))
	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "no choices returned"}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: ErrEmptyAnswer.Error(), Err: ErrEmptyAnswer}
	}
	slog.Debug("Received response from OpenAI", slog.String("finish_reason", string(resp.Choices[0].FinishReason)))
	return text, nil
}

// chatMessages builds system instruction + normalized history + user prompt.
func chatMessages(req QueryRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: SystemInstruction(req),
	})
	for _, h := range req.History {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    ChatRole(h.Role),
			Content: h.Text,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: BuildPrompt(req),
	})
	return msgs
}

func classifyOpenAIError(err error) *ProviderError {
	pe := &ProviderError{Provider: ProviderOpenAI, Message: err.Error(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
		if apiErr.Message != "" {
			pe.Message = apiErr.Message
		}
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
		if len(reqErr.Body) > 0 {
			pe.Message = string(reqErr.Body)
		}
	}
	pe.RateLimited = IsRateLimitStatus(pe.StatusCode)
	return pe
}
