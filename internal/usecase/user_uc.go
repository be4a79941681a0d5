package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-user-bot/internal/domain"
	"telegram-user-bot/internal/domain/model"
	"telegram-user-bot/internal/domain/ports/repository"
	"telegram-user-bot/internal/infra/logging"
	"telegram-user-bot/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserDirectory = (*userUC)(nil)

// UserDirectory resolves, creates and persists users keyed by their Telegram id.
type UserDirectory interface {
	// GetOrCreate returns the stored user for identity.ID, creating it on first
	// contact. created reports whether this call inserted the record.
	GetOrCreate(ctx context.Context, identity model.Identity) (u *model.User, created bool, err error)
	// Update persists the mutable fields of u. It never creates a record.
	Update(ctx context.Context, u *model.User) error
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserDirectory(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		tm:    tm,
		log:   logger,
	}
}

func (u *userUC) GetOrCreate(ctx context.Context, identity model.Identity) (*model.User, bool, error) {
	defer logging.TraceDuration(u.log, "UserDirectory.GetOrCreate")()
	const op = "get_or_create"

	existing, err := u.users.FindByID(ctx, repository.NoTX, identity.ID)
	switch {
	case err == nil:
		metrics.IncUserSync(op, "found")
		return existing, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		metrics.IncUserSync(op, "error")
		return nil, false, fmt.Errorf("find user %d: %w", identity.ID, err)
	}

	nu, err := model.NewUser(identity)
	if err != nil {
		metrics.IncUserSync(op, "error")
		return nil, false, err
	}

	err = u.users.Create(ctx, repository.NoTX, nu)
	switch {
	case err == nil:
		metrics.IncUserSync(op, "created")
		metrics.IncUsersRegistered()
		u.log.Info().Int64("tg_id", nu.ID).Msg("user registered")
		return nu, true, nil
	case errors.Is(err, domain.ErrAlreadyExists):
		// A concurrent first contact inserted the row between our read and write.
		winner, ferr := u.users.FindByID(ctx, repository.NoTX, identity.ID)
		if ferr != nil {
			metrics.IncUserSync(op, "error")
			return nil, false, fmt.Errorf("re-read user %d after duplicate create: %w", identity.ID, ferr)
		}
		metrics.IncUserSync(op, "raced")
		u.log.Debug().Int64("tg_id", identity.ID).Msg("lost user creation race, using stored record")
		return winner, false, nil
	default:
		metrics.IncUserSync(op, "error")
		return nil, false, fmt.Errorf("create user %d: %w", identity.ID, err)
	}
}

func (u *userUC) Update(ctx context.Context, usr *model.User) error {
	defer logging.TraceDuration(u.log, "UserDirectory.Update")()
	const op = "update"

	if usr.IsZero() {
		return domain.ErrInvalidArgument
	}

	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		stored, err := u.users.FindByIDForUpdate(ctx, tx, usr.ID)
		if err != nil {
			return err
		}

		// Full overwrite of the mutable fields; identity and timestamps stay store-owned.
		stored.FirstName = usr.FirstName
		stored.LastName = usr.LastName
		stored.Username = usr.Username
		stored.IsBlocked = usr.IsBlocked
		stored.IsBanned = usr.IsBanned

		if err := u.users.Update(ctx, tx, stored); err != nil {
			return err
		}
		usr.CreatedAt = stored.CreatedAt
		usr.UpdatedAt = stored.UpdatedAt
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncUserSync(op, "not_found")
		} else {
			metrics.IncUserSync(op, "error")
		}
		return fmt.Errorf("update user %d: %w", usr.ID, err)
	}
	metrics.IncUserSync(op, "updated")
	return nil
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserDirectory.Count")()
	return u.users.Count(ctx, repository.NoTX)
}
