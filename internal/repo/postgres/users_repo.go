package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID           int64
	Role         string
	Email        string
	PasswordHash string
	Name         string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UsersRepo interface {
	Create(ctx context.Context, email, hash, name string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}

type UsersRepoImpl struct{ pool *pgxpool.Pool }

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepoImpl { return &UsersRepoImpl{pool: pool} }

const userCols = `id, role, email, password_hash, name, is_verified, created_at, updated_at`

func (r *UsersRepoImpl) Create(ctx context.Context, email, hash, name string) (*User, error) {
	const q = `
INSERT INTO users (email, password_hash, name)
VALUES ($1,$2,$3)
RETURNING ` + userCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var u User
	if err := r.pool.QueryRow(ctx, q, email, hash, name).Scan(
		&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.Name, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepoImpl) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var u User
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.Name, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepoImpl) FindByID(ctx context.Context, id int64) (*User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var u User
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.Name, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var _ UsersRepo = (*UsersRepoImpl)(nil)
