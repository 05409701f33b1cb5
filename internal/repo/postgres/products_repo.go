package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
)

type ProductsRepo interface {
	ListActive(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetActiveByDuration(ctx context.Context, minutes int) (*domain.Product, error)
}

type ProductsRepoImpl struct{ pool *pgxpool.Pool }

func NewProductsRepo(pool *pgxpool.Pool) *ProductsRepoImpl { return &ProductsRepoImpl{pool: pool} }

const productCols = `id, name, description, price_cents, duration_minutes, is_active`

func (r *ProductsRepoImpl) ListActive(ctx context.Context) ([]domain.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE is_active ORDER BY duration_minutes`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ps := make([]domain.Product, 0, 4)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.DurationMinutes, &p.IsActive); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

func (r *ProductsRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.DurationMinutes, &p.IsActive)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &p, err
}

func (r *ProductsRepoImpl) GetActiveByDuration(ctx context.Context, minutes int) (*domain.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE is_active AND duration_minutes=$1 ORDER BY id LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Product
	err := r.pool.QueryRow(ctx, q, minutes).Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.DurationMinutes, &p.IsActive)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &p, err
}

var _ ProductsRepo = (*ProductsRepoImpl)(nil)
