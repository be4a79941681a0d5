package telegram

import (
	"context"
)

// callbackRoute acknowledges every callback query so the client stops its
// spinner. Callbacks carry no other behaviour yet.
func (r *Router) callbackRoute() Handler {
	return func(ctx context.Context, ev *Event) error {
		if ev.CallbackID == "" {
			return nil
		}
		return r.bot.AnswerCallback(ctx, ev.CallbackID)
	}
}
