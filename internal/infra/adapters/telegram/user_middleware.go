package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-user-bot/internal/infra/logging"
	"telegram-user-bot/internal/usecase"
)

// NewUserMiddleware resolves the sender into a stored user, binds it to the
// invocation and persists the bound user after a successful handler run.
// Events without a sender pass through untouched.
func NewUserMiddleware(directory usecase.UserDirectory, logger *zerolog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event) error {
			if ev.From == nil {
				return next(ctx, ev)
			}

			u, created, err := directory.GetOrCreate(ctx, *ev.From)
			if err != nil {
				return err
			}
			// the slot owns its copy; the directory's value is never mutated
			bound := u.Clone()
			if !created {
				bound.ApplyIdentity(*ev.From)
			}
			logging.With(ctx, logger).Debug().Bool("created", created).Msg("user resolved")

			ctx, slot := withUserSlot(ctx, bound)
			if err := next(ctx, ev); err != nil {
				return err
			}

			if bound := slot.get(); bound != nil {
				if err := directory.Update(ctx, bound); err != nil {
					return err
				}
			}
			return nil
		}
	}
}
