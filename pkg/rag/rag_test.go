package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"voicenote-be/internal/entity"
	"voicenote-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	response string
	err      error
	history  []llm.Message
}

func (s *stubLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	s.history = history
	return s.response, s.err
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	return s.Chat(context.Background(), []llm.Message{{Role: "user", Content: prompt}})
}

func TestBuildContext_EnumeratesDatedSnippets(t *testing.T) {
	notes := []*entity.Note{
		{Transcript: "buy milk\nand eggs", CreatedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)},
		{Transcript: "call the dentist", CreatedAt: time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)},
	}

	got := BuildContext(notes)

	assert.Equal(t, "1. [2025-06-02] buy milk and eggs\n2. [2025-06-03] call the dentist", got)
}

func TestBuildContext_EmptySetIsExplicit(t *testing.T) {
	assert.Equal(t, NoContextText, BuildContext(nil))
}

func TestAnswer_GroundsPromptInContext(t *testing.T) {
	stub := &stubLLM{response: " You bought milk last Monday. "}
	gen := NewAnswerGenerator(stub)

	notes := []*entity.Note{
		{Transcript: "buy milk", CreatedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)},
	}
	answer, err := gen.Answer(context.Background(), "what did I buy?", notes)

	require.NoError(t, err)
	assert.Equal(t, "You bought milk last Monday.", answer)
	require.Len(t, stub.history, 2)
	assert.Equal(t, "system", stub.history[0].Role)
	assert.Contains(t, stub.history[1].Content, "[2025-06-02] buy milk")
	assert.Contains(t, stub.history[1].Content, "what did I buy?")
}

func TestAnswer_EmptyNotesTellTheModel(t *testing.T) {
	stub := &stubLLM{response: "I could not find any notes about that."}
	gen := NewAnswerGenerator(stub)

	_, err := gen.Answer(context.Background(), "anything?", nil)

	require.NoError(t, err)
	assert.Contains(t, stub.history[1].Content, NoContextText)
}

func TestAnswer_ProviderErrorPropagates(t *testing.T) {
	stub := &stubLLM{err: errors.New("model unavailable")}
	gen := NewAnswerGenerator(stub)

	_, err := gen.Answer(context.Background(), "anything?", nil)

	assert.Error(t, err)
}
