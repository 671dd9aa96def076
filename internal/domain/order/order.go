package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the durable record created upon successful checkout. Items are
// stored as the formatted description line the cart produced at submission
// time; the order store does not re-validate cart contents.
type Order struct {
	ID               string
	UserID           string
	ItemsDescription string
	Amount           decimal.Decimal
	Address          string
	Note             string
	CreatedAt        time.Time
}

// SaleRecord is a single row of the admin sales report.
type SaleRecord struct {
	ID      string
	Product string
	Total   decimal.Decimal
	Date    time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	ListSales(ctx context.Context) ([]SaleRecord, error)
}
