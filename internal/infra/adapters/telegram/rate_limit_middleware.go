package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-user-bot/internal/domain/ports/adapter"
	"telegram-user-bot/internal/infra/i18n"
	"telegram-user-bot/internal/infra/logging"
	"telegram-user-bot/internal/infra/metrics"
	red "telegram-user-bot/internal/infra/redis"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// NewRateLimitMiddleware drops events above limit per (sender, command) and
// window. The sender gets at most one warning per window. Limiter failures
// let the event through.
func NewRateLimitMiddleware(limiter Limiter, bot adapter.TelegramBotAdapter, translator *i18n.Translator, limit int, window time.Duration, logger *zerolog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event) error {
			if ev.From == nil {
				return next(ctx, ev)
			}
			bucket := ev.Command
			if ev.Kind == KindCallback {
				bucket = "cb"
			}

			allowed, err := limiter.Allow(ctx, red.UserCommandKey(ev.From.ID, bucket), limit, window)
			if err != nil {
				logging.With(ctx, logger).Warn().Err(err).Msg("rate limiter unavailable, allowing update")
				return next(ctx, ev)
			}
			if allowed {
				return next(ctx, ev)
			}

			metrics.IncRateLimitTriggered()
			logging.With(ctx, logger).Info().Str("bucket", bucket).Msg("update rate limited")
			if warn, err := limiter.Allow(ctx, red.UserCommandKey(ev.From.ID, "warned:"+bucket), 1, window); err == nil && warn && ev.ChatID != 0 {
				if err := bot.SendMessage(ctx, ev.ChatID, translator.T("rate_limited")); err != nil {
					logging.With(ctx, logger).Warn().Err(err).Msg("failed to send rate limit warning")
				}
			}
			return nil
		}
	}
}
