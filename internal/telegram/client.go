package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/voxnote/voxnote/internal/observability"
)

// Client wraps the Telegram Bot API with the operations the pipeline
// consumes: sending and editing messages, typing presence, and downloading
// files by file ID.
type Client struct {
	api    *tgbotapi.BotAPI
	http   *http.Client
	logger zerolog.Logger
}

// NewClient authenticates against the Bot API
func NewClient(token string, logger zerolog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authentication failed: %w", err)
	}

	logger.Info().Str("username", api.Self.UserName).Msg("Authenticated with Telegram")

	return &Client{
		api:    api,
		http:   &http.Client{},
		logger: logger,
	}, nil
}

// SendMessage sends a new text message and returns its message ID
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	sent, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		observability.RecordTelegramError("send")
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// EditMessage replaces the text of a previously sent message in place
func (c *Client) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	if _, err := c.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		observability.RecordTelegramError("edit")
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// SendTyping signals typing presence. Failures only affect the indicator,
// so they are logged and swallowed.
func (c *Client) SendTyping(ctx context.Context, chatID int64) {
	if _, err := c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		observability.RecordTelegramError("typing")
		c.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("Typing action failed")
	}
}

// Download resolves the file ID and streams the file into dstPath
func (c *Client) Download(ctx context.Context, fileID, dstPath string) error {
	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		observability.RecordTelegramError("download")
		return fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.api.Token), nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordTelegramError("download")
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.RecordTelegramError("download")
		return fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, resp.Body); err != nil {
		observability.RecordTelegramError("download")
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
