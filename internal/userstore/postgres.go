package userstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

// ErrDuplicateEmail is returned by Create and Update when the target email
// already belongs to another record, active or inactive.
var ErrDuplicateEmail = errors.New("userstore: email already in use")

const uniqueViolation = "23505"

// Postgres is a Store backed directly by pgx/v5, hand-written in the same
// raw-SQL idiom as the original prototype's sqlx repository rather than a
// sqlc-generated layer (see DESIGN.md).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a Store against pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) FindByID(ctx context.Context, userID string) (*User, error) {
	return p.scanOne(ctx,
		`SELECT user_id, email, display_name, password_digest, created_at, updated_at, active
		 FROM users WHERE user_id = $1`, userID)
}

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*User, error) {
	return p.scanOne(ctx,
		`SELECT user_id, email, display_name, password_digest, created_at, updated_at, active
		 FROM users WHERE email = $1`, email)
}

func (p *Postgres) scanOne(ctx context.Context, sql string, arg string) (*User, error) {
	var u User
	err := p.pool.QueryRow(ctx, sql, arg).Scan(
		&u.UserID, &u.Email, &u.DisplayName, &u.PasswordDigest, &u.CreatedAt, &u.UpdatedAt, &u.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, auth.Wrap(auth.Internal, "userstore: query failed", err)
	}
	return &u, nil
}

func (p *Postgres) Create(ctx context.Context, userID, email, displayName, passwordDigest string) (*User, error) {
	var u User
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (user_id, email, display_name, password_digest, created_at, updated_at, active)
		 VALUES ($1, $2, $3, $4, now(), now(), true)
		 RETURNING user_id, email, display_name, password_digest, created_at, updated_at, active`,
		userID, email, displayName, passwordDigest,
	).Scan(&u.UserID, &u.Email, &u.DisplayName, &u.PasswordDigest, &u.CreatedAt, &u.UpdatedAt, &u.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, auth.Wrap(auth.Internal, "userstore: create failed", err)
	}
	return &u, nil
}

func (p *Postgres) Update(ctx context.Context, userID string, patch Patch) (*User, error) {
	var u User
	err := p.pool.QueryRow(ctx,
		`UPDATE users SET
		   email = COALESCE($2, email),
		   display_name = COALESCE($3, display_name),
		   password_digest = COALESCE($4, password_digest),
		   updated_at = now()
		 WHERE user_id = $1
		 RETURNING user_id, email, display_name, password_digest, created_at, updated_at, active`,
		userID, patch.Email, patch.DisplayName, patch.PasswordDigest,
	).Scan(&u.UserID, &u.Email, &u.DisplayName, &u.PasswordDigest, &u.CreatedAt, &u.UpdatedAt, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.New(auth.NotFound, "userstore: user not found")
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, auth.Wrap(auth.Internal, "userstore: update failed", err)
	}
	return &u, nil
}

func (p *Postgres) SetPassword(ctx context.Context, userID, passwordDigest string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE users SET password_digest = $2, updated_at = now() WHERE user_id = $1`,
		userID, passwordDigest,
	)
	if err != nil {
		return auth.Wrap(auth.Internal, "userstore: set password failed", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.New(auth.NotFound, "userstore: user not found")
	}
	return nil
}

func (p *Postgres) SoftDelete(ctx context.Context, userID string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE users SET active = false, updated_at = now() WHERE user_id = $1`, userID,
	)
	if err != nil {
		return auth.Wrap(auth.Internal, "userstore: soft delete failed", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.New(auth.NotFound, "userstore: user not found")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
