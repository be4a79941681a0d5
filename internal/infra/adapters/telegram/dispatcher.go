package telegram

import (
	"context"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-user-bot/internal/infra/logging"
	"telegram-user-bot/internal/infra/metrics"
)

// Dispatcher routes events to handlers through the middleware chain and
// contains every failure in the ErrorHandler. It is safe for concurrent use
// once configured.
type Dispatcher struct {
	commands map[string]Handler
	callback Handler
	outer    []Middleware
	inner    []Middleware
	errs     *ErrorHandler
	log      *zerolog.Logger
}

func NewDispatcher(router *Router, errs *ErrorHandler, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		commands: router.commandRoutes(),
		callback: router.callbackRoute(),
		errs:     errs,
		log:      logger,
	}
}

// Use appends middlewares that run before user reconciliation (tracing, rate limiting).
// Configure before the first Dispatch.
func (d *Dispatcher) Use(mws ...Middleware) { d.outer = append(d.outer, mws...) }

// UseInner appends middlewares that wrap the handler directly (user reconciliation).
func (d *Dispatcher) UseInner(mws ...Middleware) { d.inner = append(d.inner, mws...) }

// Dispatch processes one event. It reports false when no handler matched and
// true otherwise, including when the handler failed.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) bool {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithUpdateID(ctx, ev.UpdateID)
	if ev.From != nil {
		ctx = logging.WithTgID(ctx, ev.From.ID)
	}
	metrics.IncTelegramUpdate(string(ev.Kind))

	h := d.resolve(ev)
	if h == nil {
		logging.With(ctx, d.log).Debug().Str("kind", string(ev.Kind)).Str("command", ev.Command).Msg("no handler for update")
		return false
	}
	if ev.Command != "" {
		metrics.IncTelegramCommand("/" + ev.Command)
	}

	mws := make([]Middleware, 0, len(d.outer)+len(d.inner))
	mws = append(mws, d.outer...)
	mws = append(mws, d.inner...)

	if err := safeCall(ctx, Chain(h, mws...), ev); err != nil {
		return d.errs.Handle(ctx, ev, err)
	}
	return true
}

func (d *Dispatcher) resolve(ev *Event) Handler {
	switch ev.Kind {
	case KindMessage:
		if ev.Command == "" {
			return nil
		}
		return d.commands[ev.Command]
	case KindCallback:
		return d.callback
	default:
		return nil
	}
}

func safeCall(ctx context.Context, h Handler, ev *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return h(ctx, ev)
}
