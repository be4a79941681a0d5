package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-user-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs outgoing traffic instead of calling Telegram. Used in
// dev mode without a token.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("[noop-telegram] send message")
	return nil
}

func (b *NoopBotAdapter) AnswerCallback(ctx context.Context, callbackID string) error {
	b.log.Debug().Str("callback_id", callbackID).Msg("[noop-telegram] answer callback")
	return nil
}
