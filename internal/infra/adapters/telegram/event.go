package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-user-bot/internal/domain"
	"telegram-user-bot/internal/domain/model"
)

type EventKind string

const (
	KindMessage  EventKind = "message"
	KindCallback EventKind = "callback_query"
)

// Event is the transport-neutral view of an inbound update.
type Event struct {
	UpdateID int
	Kind     EventKind
	ChatID   int64
	// From is nil when the update carries no sender (channel posts, anonymous admins).
	From *model.Identity

	Text    string
	Command string
	Args    string

	CallbackData string
	CallbackID   string
}

type Handler func(ctx context.Context, ev *Event) error

type Middleware func(next Handler) Handler

// Chain wraps h so that mws[0] runs first.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// EventFromUpdate converts a Telegram update. Update types the bot does not
// handle yield nil.
func EventFromUpdate(up tgbotapi.Update) *Event {
	switch {
	case up.Message != nil:
		m := up.Message
		ev := &Event{
			UpdateID: up.UpdateID,
			Kind:     KindMessage,
			From:     identityFrom(m.From),
			Text:     m.Text,
		}
		if m.Chat != nil {
			ev.ChatID = m.Chat.ID
		}
		if m.IsCommand() {
			ev.Command = strings.ToLower(m.Command())
			ev.Args = strings.TrimSpace(m.CommandArguments())
		}
		return ev
	case up.CallbackQuery != nil:
		q := up.CallbackQuery
		ev := &Event{
			UpdateID:     up.UpdateID,
			Kind:         KindCallback,
			From:         identityFrom(q.From),
			CallbackData: q.Data,
			CallbackID:   q.ID,
		}
		if q.Message != nil && q.Message.Chat != nil {
			ev.ChatID = q.Message.Chat.ID
		} else if q.From != nil {
			ev.ChatID = q.From.ID
		}
		return ev
	default:
		return nil
	}
}

func identityFrom(u *tgbotapi.User) *model.Identity {
	if u == nil {
		return nil
	}
	return &model.Identity{
		ID:        u.ID,
		FirstName: model.StrPtr(u.FirstName),
		LastName:  model.StrPtr(u.LastName),
		Username:  model.StrPtr(u.UserName),
	}
}

// -----------------------------
// Per-invocation user binding
// -----------------------------

type userSlotKey struct{}

// userSlot holds the user bound to one handler invocation. Handlers may
// replace it; the reconciliation middleware persists whatever it holds last.
type userSlot struct {
	mu   sync.Mutex
	user *model.User
}

func (s *userSlot) get() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *userSlot) set(u *model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func withUserSlot(ctx context.Context, u *model.User) (context.Context, *userSlot) {
	s := &userSlot{user: u}
	return context.WithValue(ctx, userSlotKey{}, s), s
}

// UserFromContext returns the user bound to the current invocation.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	s, ok := ctx.Value(userSlotKey{}).(*userSlot)
	if !ok {
		return nil, false
	}
	u := s.get()
	return u, u != nil
}

// ReplaceUser rebinds the invocation's user. Passing nil unbinds it, which
// skips the post-handler update. It reports false when no user slot exists.
func ReplaceUser(ctx context.Context, u *model.User) bool {
	s, ok := ctx.Value(userSlotKey{}).(*userSlot)
	if !ok {
		return false
	}
	s.set(u)
	return true
}

// UserHandler is a handler that needs a resolved user.
type UserHandler func(ctx context.Context, ev *Event, u *model.User) error

// RequireUser adapts h to a Handler, failing with domain.ErrUserRequired when
// no user is bound to the invocation.
func RequireUser(h UserHandler) Handler {
	return func(ctx context.Context, ev *Event) error {
		u, ok := UserFromContext(ctx)
		if !ok {
			return domain.ErrUserRequired
		}
		return h(ctx, ev, u)
	}
}
