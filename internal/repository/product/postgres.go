package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const productColumns = `id::text, title, slug, COALESCE(description, ''), price_paise, stock, images, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+productColumns+`
FROM products
ORDER BY created_at DESC
`)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.PricePaise, &p.Stock, &p.Images, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.fetchOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.fetchOne(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, arg any) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, arg).Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.PricePaise, &p.Stock, &p.Images, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
INSERT INTO products (id, title, slug, description, price_paise, stock, images)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at
`, p.ID, p.Title, p.Slug, p.Description, p.PricePaise, p.Stock, p.Images).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("product repo: create", zap.String("slug", p.Slug), zap.Error(err))
		return nil, err
	}
	r.logger.Info("product repo: created", zap.String("id", p.ID), zap.String("slug", p.Slug))
	return &p, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	err := r.pool.QueryRow(ctx, `
UPDATE products
SET title = $2, slug = $3, description = $4, price_paise = $5, stock = $6, images = $7
WHERE id = $1
RETURNING created_at
`, p.ID, p.Title, p.Slug, p.Description, p.PricePaise, p.Stock, p.Images).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("product repo: update", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		r.logger.Error("product repo: delete", zap.String("id", id), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("product repo: deleted", zap.String("id", id))
	return nil
}

// Reserve is the compare-and-decrement guard: the WHERE clause makes
// the stock check and the decrement a single atomic statement.
func (r *postgresRepo) Reserve(ctx context.Context, productID string, qty int) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
`, productID, qty)
	if err != nil {
		r.logger.Error("product repo: reserve", zap.String("id", productID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.insufficientOrMissing(ctx, productID, qty)
	}
	return nil
}

func (r *postgresRepo) Release(ctx context.Context, productID string, qty int) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE products
SET stock = stock + $2
WHERE id = $1
`, productID, qty)
	if err != nil {
		r.logger.Error("product repo: release", zap.String("id", productID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CountOrderRefs(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM order_items
WHERE product_id = $1
`, productID).Scan(&n)
	if err != nil {
		r.logger.Error("product repo: count refs", zap.String("id", productID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) insufficientOrMissing(ctx context.Context, productID string, qty int) error {
	var available int
	err := r.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

// isInvalidID catches 22P02 so a malformed id from a request path reads
// as not-found instead of a server error.
func isInvalidID(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "22P02"
}
