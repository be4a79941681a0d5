package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-user-bot/internal/config"
	"telegram-user-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter talks to the Bot API through tgbotapi: it receives
// updates (long polling or webhook) and sends replies.
type RealTelegramBotAdapter struct {
	bot *tgbotapi.BotAPI
	cfg config.BotConfig
	log *zerolog.Logger
}

func NewRealTelegramBotAdapter(cfg config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	l := logger.With().Str("component", "tgbotapi").Logger()
	if err := tgbotapi.SetLogger(botLogger{&l}); err != nil {
		logger.Warn().Err(err).Msg("failed to set tgbotapi logger")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init bot api: %w", err)
	}
	bot.Debug = cfg.Debug
	logger.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")

	return &RealTelegramBotAdapter{bot: bot, cfg: cfg, log: logger}, nil
}

// StartPolling long-polls updates into sink until ctx is done.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, sink UpdateSink) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := r.bot.GetUpdatesChan(u)
	defer r.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if err := sink.Enqueue(ctx, up); err != nil {
				r.log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("failed to enqueue update")
			}
		}
	}
}

// WebhookHandler accepts updates pushed by Telegram. A full queue answers
// 503 right away so Telegram redelivers the update later.
func (r *RealTelegramBotAdapter) WebhookHandler(sink UpdateSink) http.Handler {
	return webhookHandler(r.bot, sink, r.log)
}

func webhookHandler(bot *tgbotapi.BotAPI, sink UpdateSink, logger *zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		up, err := bot.HandleUpdate(req)
		if err != nil {
			logger.Warn().Err(err).Msg("bad webhook request")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := sink.TryEnqueue(*up); err != nil {
			logger.Warn().Err(err).Int("update_id", up.UpdateID).Msg("failed to enqueue webhook update")
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func (r *RealTelegramBotAdapter) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	wh.AllowedUpdates = []string{"message", "callback_query"}
	if _, err := r.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) DeleteWebhook() error {
	if _, err := r.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// SendMessage sends text in HTML parse mode.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

// botLogger routes tgbotapi's internal logging to zerolog.
type botLogger struct{ l *zerolog.Logger }

func (b botLogger) Println(v ...interface{}) { b.l.Debug().Msg(fmt.Sprint(v...)) }

func (b botLogger) Printf(format string, v ...interface{}) { b.l.Debug().Msgf(format, v...) }
