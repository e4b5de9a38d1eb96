// Package embedding defines the pluggable interface used to obtain dense
// vectors for situation texts, plus the shared input budget applied before
// any text is sent to a backend.
package embedding

import (
	"context"
	"unicode/utf8"
)

// MaxTextLength is the per-text character budget applied before a batch is
// sent to an embedding backend. Situations routinely concatenate several
// analyst reports; anything past this prefix adds little retrieval signal
// and risks blowing the model's context window.
const MaxTextLength = 8000

// Embedder maps a batch of texts to fixed-dimension dense vectors.
//
// Implementations make a single backend call per batch with a bounded
// timeout and never retry within that call. Any failure (transport error,
// timeout, malformed payload) is reported as an error; callers on the query
// path treat it as "embeddings unavailable right now" rather than a fault.
type Embedder interface {
	// Embed returns one vector per input text, positionally aligned.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Truncate clips a text to the shared character budget, backing off to the
// nearest rune boundary so multi-byte text is never cut mid-rune.
func Truncate(text string) string {
	if len(text) <= MaxTextLength {
		return text
	}
	cut := MaxTextLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// TruncateAll clips every text in a batch to the shared character budget.
func TruncateAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Truncate(t)
	}
	return out
}
