package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	newsRepo "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/repository"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/config"
	sharedErrors "github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
)

// newsListLimit caps the titles returned by /news
const newsListLimit = 10

// Handler answers the operator commands of the bot
type Handler struct {
	cfg    *config.Config
	repo   newsRepo.Repository
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new Telegram handler
func New(cfg *config.Config, repo newsRepo.Repository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.handleStatus)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/news", bot.MatchTypePrefix, h.handleNews)
}

// HandleUpdate is the default handler; anything that is not a command is ignored
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.logger.Debug("Ignoring non-command message", "chat_id", update.Message.Chat.ID)
}

func (h *Handler) checkAuthorization(update *models.Update) bool {
	if update.Message == nil || update.Message.From == nil {
		return false
	}
	return h.cfg.IsUserAllowed(update.Message.From.ID)
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	}); err != nil {
		h.logger.Error("Failed to send reply", "chat_id", update.Message.Chat.ID, "error", err)
	}
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.checkAuthorization(update) {
		h.reply(ctx, b, update, "❌ You are not authorized to use this bot.")
		return
	}
	h.reply(ctx, b, update, helpText(h.cfg.EnabledModes()))
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.checkAuthorization(update) {
		h.reply(ctx, b, update, "❌ Unauthorized")
		return
	}
	h.reply(ctx, b, update, statusText(h.cfg, h.modeStatuses(), h.now()))
}

func (h *Handler) handleNews(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.checkAuthorization(update) {
		h.reply(ctx, b, update, "❌ Unauthorized")
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		h.reply(ctx, b, update, fmt.Sprintf("Usage: /news <mode>\nModes: %s", strings.Join(modeList(h.cfg.EnabledModes()), ", ")))
		return
	}

	mode, err := domain.ParseMode(parts[1])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ Unknown mode: %s", parts[1]))
		return
	}

	items, err := h.repo.Read(mode)
	if errors.Is(err, sharedErrors.ErrSnapshotNotFound) {
		h.reply(ctx, b, update, fmt.Sprintf("📭 No %s news seen yet.", mode))
		return
	}
	if err != nil {
		h.logger.Error("Failed to read snapshot", "mode", mode, "error", err)
		h.reply(ctx, b, update, fmt.Sprintf("❌ Failed to read %s news: %v", mode, err))
		return
	}

	h.reply(ctx, b, update, newsText(mode, items, newsListLimit))
}

// ModeStatus is what /status reports for one mode
type ModeStatus struct {
	Mode    domain.Mode
	Items   int
	Updated time.Time
	Err     error
}

func (h *Handler) modeStatuses() []ModeStatus {
	modes := h.cfg.EnabledModes()
	statuses := make([]ModeStatus, 0, len(modes))
	for _, mode := range modes {
		status := ModeStatus{Mode: mode}
		items, err := h.repo.Read(mode)
		if err != nil {
			status.Err = err
			statuses = append(statuses, status)
			continue
		}
		status.Items = len(items)
		status.Updated, status.Err = h.repo.Updated(mode)
		statuses = append(statuses, status)
	}
	return statuses
}

func helpText(modes []domain.Mode) string {
	return fmt.Sprintf(`👋 Welcome to the Fortnite News Bridge bot!

I watch the Fortnite news feed and post new items as they appear.

Available commands:
/help - Show this help message
/status - Show snapshot size and age per mode
/news <mode> - List the latest news titles

Modes: %s`, strings.Join(modeList(modes), ", "))
}

func statusText(cfg *config.Config, statuses []ModeStatus, now time.Time) string {
	var text strings.Builder
	text.WriteString("📊 Bridge Status:\n\n")

	if len(statuses) == 0 {
		text.WriteString("No modes enabled.\n")
	}
	for _, st := range statuses {
		switch {
		case errors.Is(st.Err, sharedErrors.ErrSnapshotNotFound):
			text.WriteString(fmt.Sprintf("⏳ %s: no snapshot yet\n", st.Mode))
		case st.Err != nil:
			text.WriteString(fmt.Sprintf("⚠️ %s: %v\n", st.Mode, st.Err))
		default:
			age := now.Sub(st.Updated).Truncate(time.Second)
			text.WriteString(fmt.Sprintf("✅ %s: %d items, updated %s ago\n", st.Mode, st.Items, age))
		}
	}

	text.WriteString(fmt.Sprintf("\nUpdate Interval: %d seconds\nHTTP Port: %s\nStorage: %s", cfg.UpdateInterval, cfg.HTTPPort, cfg.DataDir))
	return text.String()
}

func newsText(mode domain.Mode, items []domain.Item, limit int) string {
	if len(items) == 0 {
		return fmt.Sprintf("📭 The %s feed is empty.", mode)
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("📰 Latest %s news:\n\n", mode))
	for i, item := range items {
		if i == limit {
			text.WriteString(fmt.Sprintf("…and %d more", len(items)-limit))
			break
		}
		title := item.Title
		if title == "" {
			title = "(untitled)"
		}
		if item.AdSpace != "" {
			title = fmt.Sprintf("[%s] %s", item.AdSpace, title)
		}
		text.WriteString(fmt.Sprintf("%d. %s\n", i+1, title))
	}
	return strings.TrimRight(text.String(), "\n")
}

func modeList(modes []domain.Mode) []string {
	names := make([]string, 0, len(modes))
	for _, mode := range modes {
		names = append(names, mode.String())
	}
	return names
}
