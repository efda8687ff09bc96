package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const orderColumns = `id::text, user_id::text, status, total_paise, currency, payment_ref, remote_order_id, stock_restored, created_at`

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

func (r *postgresRepo) Create(ctx context.Context, userID, currency string, lines []CreateLine) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var total int64
	for _, line := range lines {
		cmd, err := tx.Exec(ctx, `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
`, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			// Rolling back undoes the reservations already applied for
			// earlier lines of this order.
			return nil, r.reservationFailure(ctx, tx, line)
		}
		total += line.UnitPricePaise * int64(line.Quantity)
	}

	order := domain.Order{
		ID:       uuid.NewString(),
		UserID:   userID,
		Status:   domain.OrderPending,
		Currency: currency,
	}
	order.TotalPaise = total

	if err := tx.QueryRow(ctx, `
INSERT INTO orders (id, user_id, status, total_paise, currency)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at
`, order.ID, order.UserID, order.Status, order.TotalPaise, order.Currency).Scan(&order.CreatedAt); err != nil {
		return nil, err
	}

	for _, line := range lines {
		item := domain.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPricePaise: line.UnitPricePaise,
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (id, order_id, product_id, quantity, unit_price_paise)
VALUES ($1, $2, $3, $4, $5)
`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPricePaise); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("order repo: created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int64("total_paise", order.TotalPaise),
	)
	return &order, nil
}

func (r *postgresRepo) reservationFailure(ctx context.Context, tx pgx.Tx, line CreateLine) error {
	var available int
	err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, line.ProductID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return &domain.InsufficientStockError{
		ProductID: line.ProductID,
		Requested: line.Quantity,
		Available: available,
	}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*domain.Order, error) {
	return r.fetchOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE remote_order_id = $1`, remoteOrderID)
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, arg any) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalPaise, &o.Currency,
		&o.PaymentRef, &o.RemoteOrderID, &o.StockRestored, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`)
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("order repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.TotalPaise, &o.Currency,
			&o.PaymentRef, &o.RemoteOrderID, &o.StockRestored, &o.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		items, err := r.loadItems(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, quantity, unit_price_paise
FROM order_items
WHERE order_id = $1
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPricePaise); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *postgresRepo) SetRemoteOrderID(ctx context.Context, id, remoteOrderID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET remote_order_id = $2
WHERE id = $1
`, id, remoteOrderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkPaid is a conditional status transition. The losing writer of a
// confirm/webhook race observes zero rows and falls through to the
// idempotence check.
func (r *postgresRepo) MarkPaid(ctx context.Context, id, paymentRef string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $2, payment_ref = $3
WHERE id = $1 AND status = $4
`, id, domain.OrderPaid, paymentRef, domain.OrderPending)
	if err != nil {
		r.logger.Error("order repo: mark paid", zap.String("order_id", id), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() > 0 {
		r.logger.Info("order repo: paid", zap.String("order_id", id), zap.String("payment_ref", paymentRef))
		return nil
	}

	var status domain.OrderStatus
	var ref *string
	err = r.pool.QueryRow(ctx, `SELECT status, payment_ref FROM orders WHERE id = $1`, id).Scan(&status, &ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if status == domain.OrderPaid && ref != nil && *ref == paymentRef {
		// Duplicate delivery; side effects already applied.
		return nil
	}
	return domain.ErrOrderStateConflict
}

// MarkFailed flips PENDING -> FAILED and releases reserved stock in the
// same transaction. The stock_restored flag keeps repeat calls from
// incrementing stock twice.
func (r *postgresRepo) MarkFailed(ctx context.Context, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE orders
SET status = $2, stock_restored = TRUE
WHERE id = $1 AND status = $3 AND stock_restored = FALSE
`, id, domain.OrderFailed, domain.OrderPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var status domain.OrderStatus
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if status == domain.OrderFailed {
			return nil
		}
		return domain.ErrOrderStateConflict
	}

	if _, err := tx.Exec(ctx, `
UPDATE products p
SET stock = p.stock + oi.quantity
FROM order_items oi
WHERE oi.order_id = $1 AND oi.product_id = p.id
`, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("order repo: failed, stock released", zap.String("order_id", id))
	return nil
}

func (r *postgresRepo) StatsByStatus(ctx context.Context) ([]StatusStats, error) {
	rows, err := r.pool.Query(ctx, `
SELECT status, COUNT(*), COALESCE(SUM(total_paise), 0)
FROM orders
GROUP BY status
`)
	if err != nil {
		r.logger.Error("order repo: stats", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var stats []StatusStats
	for rows.Next() {
		var s StatusStats
		if err := rows.Scan(&s.Status, &s.Count, &s.TotalPaise); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// isInvalidID catches 22P02 so a malformed id from a request path or a
// foreign webhook receipt reads as not-found instead of a server error.
func isInvalidID(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "22P02"
}
