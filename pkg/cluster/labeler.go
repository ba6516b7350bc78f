package cluster

import (
	"context"
	"strings"

	"voicenote-be/internal/pkg/logger"
	"voicenote-be/pkg/llm"
)

// FallbackLabel is used whenever the generative model cannot produce a
// usable category name. Label generation is best-effort and must never fail
// the surrounding assignment flow.
const FallbackLabel = "Uncategorized"

// maxSampleRunes bounds the transcript prefix sent to the model, keeping
// prompt cost independent of note length.
const maxSampleRunes = 500

// Labeler asks the LLM for a short human-readable category name.
type Labeler struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewLabeler(llmProvider llm.LLMProvider, log logger.ILogger) *Labeler {
	return &Labeler{
		llmProvider: llmProvider,
		logger:      log,
	}
}

// GenerateClusterLabel returns a trimmed ≤3-word label for the sample text,
// or FallbackLabel when the provider errors or returns nothing usable.
func (l *Labeler) GenerateClusterLabel(ctx context.Context, sampleText string) string {
	sample := truncateRunes(strings.TrimSpace(sampleText), maxSampleRunes)
	if sample == "" {
		return FallbackLabel
	}

	var prompt strings.Builder
	prompt.WriteString("Suggest a short descriptive category name (at most 3 words) for a note with the following content.\n")
	prompt.WriteString("Reply with the category name only, no punctuation, no quotes, no explanation.\n\n")
	prompt.WriteString(sample)

	raw, err := l.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0.2), llm.WithMaxTokens(16))
	if err != nil {
		l.logger.Warn("Labeler", "Label generation failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return FallbackLabel
	}

	label := sanitizeLabel(raw)
	if label == "" {
		return FallbackLabel
	}
	return label
}

func sanitizeLabel(raw string) string {
	label := strings.TrimSpace(raw)
	// Models occasionally wrap the answer in quotes or return multiple lines.
	if idx := strings.IndexAny(label, "\r\n"); idx >= 0 {
		label = label[:idx]
	}
	label = strings.Trim(label, `"'`+" \t.")

	words := strings.Fields(label)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
