package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/authkit"
)

const userColumns = `id, email, username, password_hash, token_version, verified, created_at, updated_at`

func scanUser(row pgx.Row) (*authkit.User, error) {
	var (
		u  authkit.User
		id uuid.UUID
	)
	err := row.Scan(&id, &u.Email, &u.Username, &u.PasswordHash, &u.TokenVersion, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ID = id.String()
	return &u, nil
}

// parseID maps ids that cannot exist in the table to ErrUserNotFound instead
// of a server-side cast error.
func parseID(op, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, authkit.ErrUserNotFound)
	}
	return parsed, nil
}

func (s *Storage) findOne(ctx context.Context, op, where string, arg any) (*authkit.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(s.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, authkit.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) FindByID(ctx context.Context, id string) (*authkit.User, error) {
	const op = "storage.postgres.FindByID"

	uid, err := parseID(op, id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, op, `id = $1`, uid)
}

func (s *Storage) FindByEmail(ctx context.Context, email string) (*authkit.User, error) {
	const op = "storage.postgres.FindByEmail"

	return s.findOne(ctx, op, `lower(email) = lower($1)`, strings.TrimSpace(email))
}

func (s *Storage) FindByUsername(ctx context.Context, username string) (*authkit.User, error) {
	const op = "storage.postgres.FindByUsername"

	return s.findOne(ctx, op, `username = $1`, username)
}

// Create inserts a user with a fresh UUID. Unique violations are mapped to
// ErrUsernameTaken or ErrEmailTaken by constraint name.
func (s *Storage) Create(ctx context.Context, in authkit.CreateUserInput) (*authkit.User, error) {
	const op = "storage.postgres.Create"

	query := `
		INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + userColumns

	now := time.Now().UTC()
	u, err := scanUser(s.db.QueryRow(ctx, query, uuid.New(), in.Email, in.Username, in.PasswordHash, now))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return nil, fmt.Errorf("%s: %w", op, authkit.ErrUsernameTaken)
			case "users_email_lower_key":
				return nil, fmt.Errorf("%s: %w", op, authkit.ErrEmailTaken)
			}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) Update(ctx context.Context, id string, upd authkit.UserUpdate) (*authkit.User, error) {
	const op = "storage.postgres.Update"

	uid, err := parseID(op, id)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET password_hash = COALESCE($2, password_hash),
		    verified      = COALESCE($3, verified),
		    updated_at    = now()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, uid, upd.PasswordHash, upd.Verified))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, authkit.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// IncrementTokenVersion bumps the counter in a single statement, so concurrent
// callers each observe a distinct new value.
func (s *Storage) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	const op = "storage.postgres.IncrementTokenVersion"

	uid, err := parseID(op, id)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = now()
		WHERE id = $1
		RETURNING token_version`

	var version int64
	if err := s.db.QueryRow(ctx, query, uid).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, authkit.ErrUserNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return version, nil
}
