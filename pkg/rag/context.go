package rag

import (
	"fmt"
	"strings"

	"voicenote-be/internal/entity"
)

// NoContextText is what the model sees when retrieval produced nothing.
// It is explicit so the model admits absence instead of hallucinating.
const NoContextText = "No notes were found for this query."

// snippetRunes bounds each note's contribution to the context block.
const snippetRunes = 300

// BuildContext renders retrieved notes as an enumerated, dated, one-line
// snippet block for the generative model.
func BuildContext(notes []*entity.Note) string {
	if len(notes) == 0 {
		return NoContextText
	}

	var b strings.Builder
	for i, n := range notes {
		snippet := oneLine(n.Transcript)
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, n.CreatedAt.Format("2006-01-02"), snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

func oneLine(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) > snippetRunes {
		return string(runes[:snippetRunes]) + "..."
	}
	return flat
}
