//go:build !integration

package telegram

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-user-bot/internal/domain"
	"telegram-user-bot/internal/domain/model"
	"telegram-user-bot/internal/infra/i18n"
	"telegram-user-bot/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	return tr
}

// ---- Mock UserDirectory ----

type mockDirectory struct {
	mu    sync.Mutex
	users map[int64]*model.User
	clock time.Time

	getCalls, updateCalls int
	updated               []*model.User

	GetOrCreateFunc func(ctx context.Context, identity model.Identity) (*model.User, bool, error)
	UpdateFunc      func(ctx context.Context, u *model.User) error
}

var _ usecase.UserDirectory = (*mockDirectory)(nil)

func newMockDirectory() *mockDirectory {
	return &mockDirectory{users: map[int64]*model.User{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (d *mockDirectory) seed(u *model.User) *model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clock = d.clock.Add(time.Second)
	cp := u.Clone()
	cp.CreatedAt, cp.UpdatedAt = d.clock, d.clock
	d.users[cp.ID] = cp
	return cp.Clone()
}

func (d *mockDirectory) stored(id int64) *model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.users[id].Clone()
}

func (d *mockDirectory) GetOrCreate(ctx context.Context, identity model.Identity) (*model.User, bool, error) {
	d.mu.Lock()
	d.getCalls++
	d.mu.Unlock()
	if d.GetOrCreateFunc != nil {
		return d.GetOrCreateFunc(ctx, identity)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[identity.ID]; ok {
		return u.Clone(), false, nil
	}
	u, err := model.NewUser(identity)
	if err != nil {
		return nil, false, err
	}
	d.clock = d.clock.Add(time.Second)
	u.CreatedAt, u.UpdatedAt = d.clock, d.clock
	d.users[u.ID] = u.Clone()
	return u, true, nil
}

func (d *mockDirectory) Update(ctx context.Context, u *model.User) error {
	d.mu.Lock()
	d.updateCalls++
	d.updated = append(d.updated, u)
	d.mu.Unlock()
	if d.UpdateFunc != nil {
		return d.UpdateFunc(ctx, u)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	old, ok := d.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	d.clock = d.clock.Add(time.Second)
	cp := u.Clone()
	cp.CreatedAt, cp.UpdatedAt = old.CreatedAt, d.clock
	d.users[u.ID] = cp
	u.UpdatedAt = cp.UpdatedAt
	return nil
}

func (d *mockDirectory) Count(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users), nil
}

// ---- Mock TelegramBotAdapter ----

type sentMessage struct {
	ChatID int64
	Text   string
}

type mockBot struct {
	mu        sync.Mutex
	sent      []sentMessage
	answered  []string
	SendErr   error
	AnswerErr error
}

func (b *mockBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SendErr != nil {
		return b.SendErr
	}
	b.sent = append(b.sent, sentMessage{chatID, text})
	return nil
}

func (b *mockBot) AnswerCallback(ctx context.Context, callbackID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.AnswerErr != nil {
		return b.AnswerErr
	}
	b.answered = append(b.answered, callbackID)
	return nil
}

func (b *mockBot) messages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.sent...)
}

// ---- Mock Limiter ----

type mockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	Err    error
}

func newMockLimiter() *mockLimiter { return &mockLimiter{counts: map[string]int{}} }

func (l *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.Err != nil {
		return false, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

// ---- helpers ----

func startEvent(id int64, username string) *Event {
	return &Event{
		UpdateID: 1,
		Kind:     KindMessage,
		ChatID:   id,
		From:     &model.Identity{ID: id, FirstName: model.StrPtr("Ann"), Username: model.StrPtr(username)},
		Text:     "/start",
		Command:  "start",
	}
}
