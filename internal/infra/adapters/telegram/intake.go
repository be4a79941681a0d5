package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-user-bot/internal/infra/worker"
)

// UpdateSink accepts raw updates from a transport. Polling uses Enqueue and
// waits for room; the webhook uses TryEnqueue and answers busy instead.
type UpdateSink interface {
	Enqueue(ctx context.Context, up tgbotapi.Update) error
	TryEnqueue(up tgbotapi.Update) error
}

// Intake converts updates to events and dispatches them on the worker pool.
// Each dispatch gets its own deadline derived from the pool context.
type Intake struct {
	dispatcher *Dispatcher
	pool       *worker.Pool
	timeout    time.Duration
	log        *zerolog.Logger
}

var _ UpdateSink = (*Intake)(nil)

func NewIntake(d *Dispatcher, pool *worker.Pool, timeout time.Duration, logger *zerolog.Logger) *Intake {
	return &Intake{dispatcher: d, pool: pool, timeout: timeout, log: logger}
}

// Enqueue blocks until the update is queued or ctx is done.
func (in *Intake) Enqueue(ctx context.Context, up tgbotapi.Update) error {
	ev := EventFromUpdate(up)
	if ev == nil {
		in.log.Debug().Int("update_id", up.UpdateID).Msg("skipping unsupported update type")
		return nil
	}
	return in.pool.Submit(ctx, in.task(ev))
}

// TryEnqueue queues the update without waiting; worker.ErrQueueFull when saturated.
func (in *Intake) TryEnqueue(up tgbotapi.Update) error {
	ev := EventFromUpdate(up)
	if ev == nil {
		in.log.Debug().Int("update_id", up.UpdateID).Msg("skipping unsupported update type")
		return nil
	}
	return in.pool.TrySubmit(in.task(ev))
}

func (in *Intake) task(ev *Event) worker.Task {
	return func(base context.Context) error {
		ctx, cancel := context.WithTimeout(base, in.timeout)
		defer cancel()
		in.dispatcher.Dispatch(ctx, ev)
		return nil
	}
}
