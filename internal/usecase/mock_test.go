//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-user-bot/internal/domain"
	"telegram-user-bot/internal/domain/model"
	"telegram-user-bot/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func ident(id int64, first, last, username string) model.Identity {
	return model.Identity{
		ID:        id,
		FirstName: model.StrPtr(first),
		LastName:  model.StrPtr(last),
		Username:  model.StrPtr(username),
	}
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

// MockUserRepo is an in-memory User Record Store. It enforces primary key
// uniqueness and strictly increasing UpdatedAt the way the database does.
type MockUserRepo struct {
	mu    sync.Mutex
	byID  map[int64]*model.User
	clock time.Time

	Calls struct {
		FindByID, FindByIDForUpdate, Create, Update int
	}

	FindByIDFunc          func(ctx context.Context, tx repository.Tx, id int64) (*model.User, error)
	FindByIDForUpdateFunc func(ctx context.Context, tx repository.Tx, id int64) (*model.User, error)
	CreateFunc            func(ctx context.Context, tx repository.Tx, u *model.User) error
	UpdateFunc            func(ctx context.Context, tx repository.Tx, u *model.User) error
	CountFunc             func(ctx context.Context, tx repository.Tx) (int, error)

	// BeforeCreate runs outside the lock before the default Create logic.
	BeforeCreate func(id int64)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{
		byID:  map[int64]*model.User{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick must be called with mu held.
func (r *MockUserRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

// Seed stores u directly, stamping timestamps when they are zero.
func (r *MockUserRepo) Seed(u *model.User) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := u.Clone()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = r.tick()
		cp.UpdatedAt = cp.CreatedAt
	}
	r.byID[cp.ID] = cp
	return cp.Clone()
}

// Stored returns a copy of the stored record, or nil.
func (r *MockUserRepo) Stored(id int64) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Clone()
}

func (r *MockUserRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	r.mu.Lock()
	r.Calls.FindByID++
	r.mu.Unlock()
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	return r.find(id)
}

func (r *MockUserRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	r.mu.Lock()
	r.Calls.FindByIDForUpdate++
	r.mu.Unlock()
	if r.FindByIDForUpdateFunc != nil {
		return r.FindByIDForUpdateFunc(ctx, tx, id)
	}
	return r.find(id)
}

func (r *MockUserRepo) find(id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return u.Clone(), nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.mu.Lock()
	r.Calls.Create++
	r.mu.Unlock()
	if r.BeforeCreate != nil {
		r.BeforeCreate(u.ID)
	}
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return domain.ErrAlreadyExists
	}
	now := r.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = u.Clone()
	return nil
}

func (r *MockUserRepo) Update(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.mu.Lock()
	r.Calls.Update++
	r.mu.Unlock()
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := u.Clone()
	cp.CreatedAt = old.CreatedAt
	cp.UpdatedAt = r.tick()
	r.byID[u.ID] = cp
	u.CreatedAt, u.UpdatedAt = cp.CreatedAt, cp.UpdatedAt
	return nil
}

func (r *MockUserRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountFunc != nil {
		return r.CountFunc(ctx, tx)
	}
	return r.Len(), nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
	Calls      int
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
