package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-user-bot/internal/domain"
	"telegram-user-bot/internal/domain/model"
	"telegram-user-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, first_name, last_name, username, is_blocked, is_banned, created_at, updated_at`

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	return r.findOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
}

func (r *PostgresUserRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	return r.findOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id=$1 FOR UPDATE;`, id)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, tx repository.Tx, q string, id int64) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.IsBlocked, &u.IsBanned, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// Create inserts u. The insert never aborts the surrounding transaction on a
// duplicate id: ON CONFLICT yields no row, which is reported as ErrAlreadyExists.
func (r *PostgresUserRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, first_name, last_name, username, is_blocked, is_banned)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO NOTHING
RETURNING created_at, updated_at;`
	row, err := pickRow(ctx, r.pool, tx, q, u.ID, u.FirstName, u.LastName, u.Username, u.IsBlocked, u.IsBanned)
	if err != nil {
		return err
	}
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update writes the mutable columns; created_at and updated_at are maintained by a trigger.
func (r *PostgresUserRepo) Update(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
UPDATE users SET
  first_name=$2, last_name=$3, username=$4, is_blocked=$5, is_banned=$6
WHERE id=$1
RETURNING created_at, updated_at;`
	row, err := pickRow(ctx, r.pool, tx, q, u.ID, u.FirstName, u.LastName, u.Username, u.IsBlocked, u.IsBanned)
	if err != nil {
		return err
	}
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
