package rag

import (
	"context"
	"fmt"
	"strings"

	"voicenote-be/internal/entity"
	"voicenote-be/pkg/llm"
)

const systemInstruction = `You are a personal note assistant. Answer the user's question using ONLY the notes provided as context. Each note is prefixed with its creation date in [YYYY-MM-DD] format.
Rules:
- If the context does not contain the answer, say so plainly. Never invent content that is not in the notes.
- Refer to dates conversationally (e.g. "last Tuesday", "on June 2nd") rather than repeating the raw format.
- Keep answers short and direct.`

// AnswerGenerator produces a grounded natural-language answer over
// retrieved notes.
type AnswerGenerator struct {
	llmProvider llm.LLMProvider
}

func NewAnswerGenerator(llmProvider llm.LLMProvider) *AnswerGenerator {
	return &AnswerGenerator{llmProvider: llmProvider}
}

// Answer builds the context block from the retrieved notes and asks the
// model to answer the query from it. The notes slice may be empty; the
// model is then told explicitly that nothing was found.
func (g *AnswerGenerator) Answer(ctx context.Context, query string, notes []*entity.Note) (string, error) {
	contextBlock := BuildContext(notes)

	history := []llm.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: fmt.Sprintf("Notes:\n%s\n\nQuestion: %s", contextBlock, query)},
	}

	answer, err := g.llmProvider.Chat(ctx, history, llm.WithTemperature(0.4))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
