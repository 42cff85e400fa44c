// Package telegram answers digit photos sent to a Telegram bot.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"digitlens-go/domain/history"
	"digitlens-go/domain/recognition"
	"digitlens-go/infrastructure/logging"
)

const (
	msgStart = `Hi! Send me a photo of a single handwritten digit and I will tell you which digit it is.

Commands:
/history - your last predictions
/clear - forget your history
/help - usage tips`

	msgHelp = `How to get good results:
- one digit per image, roughly centred
- a light digit on a dark background works best
- crop away anything that is not the digit

Photos and image files (PNG, JPEG, GIF, BMP, TIFF, WebP) are accepted.

Commands:
/history - your last predictions
/clear - forget your history`

	msgSendPhoto       = "Please send a photo of a handwritten digit."
	msgUnknownCommand  = "Unknown command. Use /help for the list of commands."
	msgUnavailable     = "The model is not loaded, so predictions are unavailable right now."
	msgDecodeError     = "Could not read this image. Please send a PNG or JPEG picture."
	msgProcessingError = "Something went wrong while processing the image. Please try again."
	msgEmptyHistory    = "No predictions yet."
	msgHistoryError    = "Could not load your history right now."
	msgCleared         = "History cleared (%d records)."
)

// Decoder turns raw bytes into an image.
type Decoder interface {
	Decode(r io.Reader) (image.Image, error)
}

// sender is the subset of *tgbotapi.BotAPI used for replies.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// downloadFunc fetches the content of a Telegram file.
type downloadFunc func(ctx context.Context, fileID string) ([]byte, error)

// Config holds the bot's dependencies.
type Config struct {
	Token        string
	Recognizer   *recognition.Service
	Decoder      Decoder
	History      *history.Service
	HistoryLimit int
	Logger       *slog.Logger
}

// Bot handles updates one at a time.
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   sender
	download downloadFunc

	recognizer   *recognition.Service
	decoder      Decoder
	history      *history.Service
	historyLimit int
	logger       *slog.Logger
}

// NewBot authorizes with the Bot API.
func NewBot(cfg *Config) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}

	b := newBot(api, nil, cfg)
	b.api = api
	b.download = b.downloadFile
	b.logger.Info("Authorized on account", "username", api.Self.UserName)
	return b, nil
}

func newBot(s sender, download downloadFunc, cfg *Config) *Bot {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 10
	}
	return &Bot{
		sender:       s,
		download:     download,
		recognizer:   cfg.Recognizer,
		decoder:      cfg.Decoder,
		history:      cfg.History,
		historyLimit: limit,
		logger:       logger,
	}
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("update channel closed")
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx = logging.WithAttrs(logging.With(ctx, b.logger), "chat_id", msg.Chat.ID)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 {
		// the last size is the largest
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg, photo.FileID, "photo")
		return
	}

	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		b.handleImage(ctx, msg, doc.FileID, doc.FileName)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "history":
		if b.history == nil {
			b.sendMessage(chatID, msgHistoryError)
			return
		}
		records, err := b.history.Recent(ctx, chatID, b.historyLimit)
		if err != nil {
			logging.From(ctx).Error("Failed to load history", "error", err)
			b.sendMessage(chatID, msgHistoryError)
			return
		}
		b.sendMessage(chatID, formatHistory(records))

	case "clear":
		if b.history == nil {
			b.sendMessage(chatID, msgHistoryError)
			return
		}
		n, err := b.history.Clear(ctx, chatID)
		if err != nil {
			logging.From(ctx).Error("Failed to clear history", "error", err)
			b.sendMessage(chatID, msgHistoryError)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgCleared, n))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID, source string) {
	chatID := msg.Chat.ID
	logger := logging.From(ctx).With("source", source)

	if b.recognizer == nil || !b.recognizer.Available() {
		b.sendMessage(chatID, msgUnavailable)
		return
	}

	data, err := b.download(ctx, fileID)
	if err != nil {
		logger.Error("Error downloading image", "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	img, err := b.decoder.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn("Undecodable image", "bytes", len(data), "error", err)
		b.sendMessage(chatID, msgDecodeError)
		return
	}

	pred, err := b.recognizer.Recognize(ctx, img)
	switch {
	case errors.Is(err, recognition.ErrClassifierUnavailable):
		b.sendMessage(chatID, msgUnavailable)
		return
	case err != nil:
		logger.Error("Recognition failed", "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	logger.Info("Digit recognized", "digit", pred.Digit, "confidence", pred.Confidence())
	b.sendMessage(chatID, strings.Join(pred.ReportLines(), "\n"))

	if b.history != nil {
		if _, err := b.history.Add(ctx, chatID, pred, source); err != nil {
			logger.Error("Failed to save history", "error", err)
		}
	}
}

func formatHistory(records []*history.Record) string {
	if len(records) == 0 {
		return msgEmptyHistory
	}
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, fmt.Sprintf("Last %d predictions:", len(records)))
	for _, r := range records {
		lines = append(lines, r.Summary())
	}
	return strings.Join(lines, "\n")
}

// downloadFile fetches a file from Telegram.
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Error sending message", "chat_id", chatID, "error", err)
	}
}
