package engine

import (
	"context"
	"fmt"
	"strings"

	prerecorded "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"
)

// Deepgram transcribes via Deepgram's prerecorded REST API. The response is
// batch-shaped, so utterances are wrapped in a buffered stream to satisfy the
// single-pass Stream contract.
type Deepgram struct {
	api    *prerecorded.Client
	model  string
	logger zerolog.Logger
}

// NewDeepgram creates a Deepgram prerecorded backend
func NewDeepgram(apiKey, model string, logger zerolog.Logger) *Deepgram {
	c := listenClient.NewREST(apiKey, &interfaces.ClientOptions{})
	return &Deepgram{
		api:    prerecorded.New(c),
		model:  model,
		logger: logger,
	}
}

// Transcribe uploads the file and converts utterances to segments
func (d *Deepgram) Transcribe(ctx context.Context, audioPath, language string) (Stream, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:      d.model,
		Punctuate:  true,
		Utterances: true,
	}
	if language == "" {
		options.DetectLanguage = true
	} else {
		options.Language = language
	}

	res, err := d.api.FromFile(ctx, audioPath, options)
	if err != nil {
		return nil, fmt.Errorf("deepgram request: %w", err)
	}

	var segments []Segment
	for _, utt := range res.Results.Utterances {
		text := strings.TrimSpace(utt.Transcript)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Start: utt.Start,
			End:   utt.End,
			Text:  text,
		})
	}

	duration := res.Metadata.Duration

	d.logger.Debug().
		Int("segments", len(segments)).
		Float64("duration", duration).
		Msg("Deepgram transcription complete")

	return NewBufferedStream(segments, duration), nil
}

// Close is a no-op; the REST client holds no persistent resources
func (d *Deepgram) Close() error {
	return nil
}
