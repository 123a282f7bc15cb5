package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password_hash, created_at`

func (r *repository) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	rows, _ := r.db.pool.Query(ctx,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		arg.Name, arg.Email, arg.PasswordHash)

	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[User])
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	rows, _ := r.db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[User])
	if err != nil {
		return User{}, notFound(err)
	}
	return user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (User, error) {
	rows, _ := r.db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[User])
	if err != nil {
		return User{}, notFound(err)
	}
	return user, nil
}

// UpsertOAuthUser returns the account for email, creating a password-less one
// on first Google login. An existing account keeps its name and password.
func (r *repository) UpsertOAuthUser(ctx context.Context, name, email string) (User, error) {
	rows, _ := r.db.pool.Query(ctx,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, NULL)
		 ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		 RETURNING `+userColumns,
		name, email)

	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[User])
	if err != nil {
		return User{}, fmt.Errorf("failed to upsert oauth user: %w", err)
	}
	return user, nil
}
