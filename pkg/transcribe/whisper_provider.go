package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// WhisperProvider transcribes audio through the OpenAI audio API (or any
// OpenAI-compatible endpoint when BaseURL is set).
type WhisperProvider struct {
	client *openai.Client
	model  string
}

var _ Provider = &WhisperProvider{}

func NewWhisperProvider(apiKey, baseURL, model string) *WhisperProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (p *WhisperProvider) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: filename, // used for format detection only, bytes come from Reader
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
