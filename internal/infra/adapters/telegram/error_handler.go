package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-user-bot/internal/infra/logging"
	"telegram-user-bot/internal/infra/metrics"
)

// PanicError carries a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panic: %v", e.Value) }

// ErrorHandler is the last stop for errors escaping a handler chain.
type ErrorHandler struct {
	log *zerolog.Logger
	dev bool
}

func NewErrorHandler(logger *zerolog.Logger, dev bool) *ErrorHandler {
	return &ErrorHandler{log: logger, dev: dev}
}

// Handle logs err with the event that caused it and reports it as handled.
// It never retries and never replies to the user.
func (h *ErrorHandler) Handle(ctx context.Context, ev *Event, err error) bool {
	e := h.log.Error().Err(err).Str("trace_id", logging.TraceID(ctx))
	if ev != nil {
		e = e.Int("update_id", ev.UpdateID).
			Str("kind", string(ev.Kind)).
			Int64("chat_id", ev.ChatID).
			Str("command", ev.Command)
		if ev.Text != "" {
			e = e.Str("text", logging.Redact(ev.Text, h.dev))
		}
		if ev.From != nil {
			e = e.Int64("tg_id", ev.From.ID)
		}
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		e = e.Bytes("stack", pe.Stack)
	}
	e.Msg("unhandled error while processing update")

	kind := "unknown"
	if ev != nil {
		kind = string(ev.Kind)
	}
	metrics.IncHandlerError(kind)
	return true
}
