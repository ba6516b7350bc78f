package factory

import (
	"fmt"

	"voicenote-be/pkg/llm"
	"voicenote-be/pkg/llm/gemini"
	"voicenote-be/pkg/llm/ollama"
)

// NewLLMProvider selects an LLM backend from configuration.
func NewLLMProvider(provider, model, ollamaBaseURL, geminiApiKey string) (llm.LLMProvider, error) {
	switch provider {
	case "ollama":
		return ollama.NewOllamaProvider(ollamaBaseURL, model), nil
	case "gemini":
		if geminiApiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(geminiApiKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
