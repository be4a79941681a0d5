package repository

import (
	"context"

	"telegram-user-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

// UserRepository is the User Record Store. The primary key on ID is the
// only exclusion mechanism; implementations must not lock in-process.
type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.User, error)
	// FindByIDForUpdate locks the row until tx ends when tx is transactional.
	FindByIDForUpdate(ctx context.Context, tx Tx, id int64) (*model.User, error)
	// Create inserts u and fills CreatedAt/UpdatedAt. A duplicate ID yields domain.ErrAlreadyExists.
	Create(ctx context.Context, tx Tx, u *model.User) error
	// Update writes the mutable fields of u and fills UpdatedAt. A missing row yields domain.ErrNotFound.
	Update(ctx context.Context, tx Tx, u *model.User) error
	Count(ctx context.Context, tx Tx) (int, error)
}
