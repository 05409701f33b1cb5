package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VerifyRepo defines operations for email verification tokens and user
// verification flags.
type VerifyRepo interface {
	CreateEmailVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	// ConsumeEmailVerification marks a token used if valid and returns the
	// userID (0 if not found, invalid, expired or already used).
	ConsumeEmailVerification(ctx context.Context, token string) (userID int64, err error)
	MarkUserVerified(ctx context.Context, userID int64) error
	// DeleteExpiredTokens removes old tokens (maintenance).
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

type VerifyRepoImpl struct{ pool *pgxpool.Pool }

func NewVerifyRepo(pool *pgxpool.Pool) *VerifyRepoImpl { return &VerifyRepoImpl{pool: pool} }

func (r *VerifyRepoImpl) CreateEmailVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO email_verification_tokens (user_id, token, expires_at)
         VALUES ($1, $2, $3)`,
		userID, token, expiresAt,
	)
	return err
}

func (r *VerifyRepoImpl) ConsumeEmailVerification(ctx context.Context, token string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var userID int64
	// Mark-used and return the user id atomically, only if unused and unexpired.
	err := r.pool.QueryRow(ctx, `
UPDATE email_verification_tokens
SET used_at = now()
WHERE token = $1
  AND used_at IS NULL
  AND expires_at > now()
RETURNING user_id
`, token).Scan(&userID)

	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return userID, err
}

func (r *VerifyRepoImpl) MarkUserVerified(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
UPDATE users
SET is_verified = true, updated_at = now()
WHERE id = $1
`, userID)
	return err
}

func (r *VerifyRepoImpl) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
DELETE FROM email_verification_tokens
WHERE (used_at IS NOT NULL AND used_at < now() - interval '30 days')
   OR (used_at IS NULL AND expires_at < now() - interval '30 days')
`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ VerifyRepo = (*VerifyRepoImpl)(nil)
