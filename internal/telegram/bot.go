package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/voxnote/voxnote/internal/pipeline"
)

const welcomeText = "Hi! Send me a voice note, an audio message, or a lecture file (mp3/mp4/ogg/opus/wav) and I'll turn it into text.\n" +
	"Tip: clear recordings made close to the microphone work best."

// Handler processes one media request; each request runs in its own goroutine
type Handler interface {
	Handle(ctx context.Context, req pipeline.Request)
}

// Bot polls Telegram for updates and routes media messages into the pipeline
type Bot struct {
	client      *Client
	handler     Handler
	pollTimeout int
	logger      zerolog.Logger
}

// NewBot wires the update loop to a request handler
func NewBot(client *Client, handler Handler, pollTimeout int, logger zerolog.Logger) *Bot {
	return &Bot{
		client:      client,
		handler:     handler,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Run polls for updates until ctx is canceled
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.client.api.GetUpdatesChan(u)

	b.logger.Info().Msg("Bot is running")

	for {
		select {
		case <-ctx.Done():
			b.client.api.StopReceivingUpdates()
			b.logger.Info().Msg("Update polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches one update. Media messages spawn an independent
// pipeline run so a long transcription never blocks polling.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	if msg.IsCommand() {
		if msg.Command() == "start" {
			if _, err := b.client.SendMessage(ctx, msg.Chat.ID, welcomeText); err != nil {
				b.logger.Warn().Err(err).Msg("Failed to send welcome message")
			}
		}
		return
	}

	req, ok := mediaRequest(msg)
	if !ok {
		return
	}

	go b.handler.Handle(ctx, req)
}

// mediaRequest maps the four supported media kinds to a pipeline request
// with the friendly label shown to the user
func mediaRequest(msg *tgbotapi.Message) (pipeline.Request, bool) {
	req := pipeline.Request{ChatID: msg.Chat.ID}

	switch {
	case msg.Voice != nil:
		req.FileID = msg.Voice.FileID
		req.Label = "Voice Note"
		req.Kind = "voice"
	case msg.Audio != nil:
		name := msg.Audio.FileName
		if name == "" {
			name = "audio"
		}
		req.FileID = msg.Audio.FileID
		req.Label = fmt.Sprintf("Audio (%s)", name)
		req.Kind = "audio"
	case msg.VideoNote != nil:
		req.FileID = msg.VideoNote.FileID
		req.Label = "Video Note"
		req.Kind = "video_note"
	case msg.Document != nil:
		name := msg.Document.FileName
		if name == "" {
			name = "file"
		}
		req.FileID = msg.Document.FileID
		req.Label = fmt.Sprintf("Document (%s)", name)
		req.Kind = "document"
	default:
		return pipeline.Request{}, false
	}

	return req, true
}
