package telegram

import (
	"context"
	"errors"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-user-bot/internal/domain/model"
	"telegram-user-bot/internal/domain/ports/adapter"
	"telegram-user-bot/internal/infra/i18n"
	"telegram-user-bot/internal/infra/logging"
)

// Router owns the bot's command and callback handlers.
type Router struct {
	bot        adapter.TelegramBotAdapter
	translator *i18n.Translator
	log        *zerolog.Logger
}

func NewRouter(bot adapter.TelegramBotAdapter, translator *i18n.Translator, logger *zerolog.Logger) *Router {
	return &Router{bot: bot, translator: translator, log: logger}
}

// commandRoutes defines all available bot commands and their handlers.
func (r *Router) commandRoutes() map[string]Handler {
	return map[string]Handler{
		"start": RequireUser(r.handleStartCommand),
	}
}

// handleStartCommand greets the user. Replying also tells us whether the
// user still accepts messages from the bot, which is recorded on the user.
func (r *Router) handleStartCommand(ctx context.Context, ev *Event, u *model.User) error {
	log := logging.With(ctx, r.log)
	if u.IsBanned {
		log.Info().Msg("ignoring /start from banned user")
		return nil
	}

	text := r.translator.T("greeting_anonymous")
	if mention := u.MentionHTML(); mention != "" {
		text = r.translator.T("greeting", mention)
	}

	u.IsBlocked = false
	if err := r.bot.SendMessage(ctx, ev.ChatID, text); err != nil {
		if IsBlockedByUser(err) {
			log.Info().Msg("bot is blocked by user")
			u.IsBlocked = true
			return nil
		}
		return err
	}
	return nil
}

// IsBlockedByUser reports whether err is Telegram's 403 for a user who blocked the bot.
func IsBlockedByUser(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden
}
