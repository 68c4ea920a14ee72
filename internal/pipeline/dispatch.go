package pipeline

import (
	"fmt"
	"strings"
)

// MaxMessageLength is the chunk size for outbound transcript messages.
// Telegram rejects longer texts.
const MaxMessageLength = 4000

// fallbackNotice is sent when transcription produced no text at all
const fallbackNotice = "Couldn't extract any text from the file. Try a clearer recording or a different format."

// SendFunc sends one new outbound message
type SendFunc func(text string) error

// Dispatch delivers the final transcript. Empty text yields a single
// fallback notice; short text goes out as one labeled message; anything
// longer is split into order-preserving chunks whose concatenation
// reproduces the text exactly.
func Dispatch(send SendFunc, label, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return send(fallbackNotice)
	}

	runes := []rune(text)
	if len(runes) <= MaxMessageLength {
		return send(fmt.Sprintf("Transcript (%s):\n\n%s", label, text))
	}

	if err := send(fmt.Sprintf("The transcript is long — sending it in parts (%s):", label)); err != nil {
		return err
	}
	for _, chunk := range chunkRunes(runes, MaxMessageLength) {
		if err := send(chunk); err != nil {
			return err
		}
	}
	return nil
}

// chunkRunes splits runes into consecutive pieces of at most size runes.
// Boundaries are purely positional; no characters are dropped or reordered.
func chunkRunes(runes []rune, size int) []string {
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
