package transcribe

import "context"

// Provider converts stored audio into a transcript. Implementations wrap a
// network speech-to-text service; callers bound every call with a context
// deadline since audio size (and therefore latency) varies widely.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}
