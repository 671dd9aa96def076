package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andiko/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, items_description, amount, address, note)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)`

	listSalesSQL = `SELECT id, items_description, amount, created_at
		FROM orders ORDER BY created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order record. CreatedAt is assigned by the database.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, o.ItemsDescription, o.Amount, o.Address, o.Note,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// ListSales returns one sale record per order, newest first.
func (r *OrderRepository) ListSales(ctx context.Context) ([]order.SaleRecord, error) {
	rows, err := r.pool.Query(ctx, listSalesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.SaleRecord, error) {
		var rec order.SaleRecord
		err := row.Scan(&rec.ID, &rec.Product, &rec.Total, &rec.Date)
		return rec, err
	})
}
