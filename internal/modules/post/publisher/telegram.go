package publisher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/post/domain"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/samber/oops"
)

// TelegramLimit is the photo caption budget, the tighter of the two
// Telegram limits.
const TelegramLimit = 1024

// Telegram publishes posts to a chat or channel through a bot.
type Telegram struct {
	bot    *bot.Bot
	chatID string
	logger *slog.Logger
}

// NewTelegram creates a Telegram publisher posting to chatID.
func NewTelegram(b *bot.Bot, chatID string, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		logger: logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Limit() int { return TelegramLimit }

func (t *Telegram) Authenticate(ctx context.Context) error {
	if t.bot == nil {
		return oops.In("telegram").Wrap(errors.ErrPublisherDisabled)
	}
	if _, err := t.bot.GetMe(ctx); err != nil {
		return oops.In("telegram").With("cause", err.Error()).Wrap(errors.ErrAuthentication)
	}
	return nil
}

func (t *Telegram) Publish(ctx context.Context, post domain.Post) error {
	errb := oops.In("telegram").With("item_id", post.ItemID, "chat_id", t.chatID)

	if t.bot == nil {
		return errb.Wrap(errors.ErrPublisherDisabled)
	}

	photo, closeFn, err := t.photo(post.Image)
	if err != nil {
		t.logger.Warn("Composed image unavailable", "item_id", post.ItemID, "fallback_url", post.Image.URL, "error", err)
	}
	defer closeFn()

	if photo != nil {
		_, err = t.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  t.chatID,
			Photo:   photo,
			Caption: post.Body,
		})
	} else {
		_, err = t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: t.chatID,
			Text:   post.Body,
		})
	}
	if err != nil {
		return errb.With("cause", err.Error()).Wrap(errors.ErrPublishFailed)
	}
	return nil
}

func (t *Telegram) photo(img domain.Image) (models.InputFile, func(), error) {
	noop := func() {}

	switch {
	case img.Path != "":
		f, err := os.Open(img.Path)
		if err != nil {
			if img.URL != "" {
				return &models.InputFileString{Data: img.URL}, noop, err
			}
			return nil, noop, err
		}
		return &models.InputFileUpload{Filename: filepath.Base(img.Path), Data: f}, func() { _ = f.Close() }, nil
	case img.URL != "":
		return &models.InputFileString{Data: img.URL}, noop, nil
	default:
		return nil, noop, nil
	}
}
