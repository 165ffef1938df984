package ai

import (
	"context"
	"fmt"
	"net/http"
	"path"

	openai "github.com/sashabaranov/go-openai"

	"github.com/noah-isme/edu-platform-api/pkg/config"
)

// Client is the narrow surface the services depend on. The completion service
// is a black box; everything here is pass-through.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// OpenAIClient implements Client against the OpenAI API.
type OpenAIClient struct {
	api             *openai.Client
	chatModel       string
	transcribeModel string
	maxTokens       int
	httpClient      *http.Client
}

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT4
	}
	transcribeModel := cfg.TranscribeModel
	if transcribeModel == "" {
		transcribeModel = openai.Whisper1
	}
	return &OpenAIClient{
		api:             openai.NewClient(cfg.APIKey),
		chatModel:       chatModel,
		transcribeModel: transcribeModel,
		maxTokens:       cfg.MaxTokens,
		httpClient:      http.DefaultClient,
	}
}

// Complete sends a system+user prompt pair and returns the generated text.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.chatModel,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe fetches the referenced audio resource and returns its transcript.
func (c *OpenAIClient) Transcribe(ctx context.Context, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("build audio request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch audio: unexpected status %d", resp.StatusCode)
	}

	transcript, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		Reader:   resp.Body,
		FilePath: path.Base(audioURL),
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return transcript.Text, nil
}
