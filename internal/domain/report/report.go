// Package report builds the admin sales report from persisted orders.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/andiko/storefront/internal/domain/order"
)

// Period selects the reporting window relative to the current time.
type Period string

const (
	// PeriodDaily covers the current calendar day.
	PeriodDaily Period = "daily"
	// PeriodWeekly covers the current ISO week (Monday through Sunday).
	PeriodWeekly Period = "weekly"
	// PeriodMonthly covers the current calendar month.
	PeriodMonthly Period = "monthly"
)

// ErrUnknownPeriod is returned for a period value outside the known set.
var ErrUnknownPeriod = errors.New("unknown report period")

// ParsePeriod validates a period string. An empty string defaults to daily.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodDaily, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(s), nil
	default:
		return "", ErrUnknownPeriod
	}
}

// Row aggregates the sales of one product line within the window.
type Row struct {
	Product string
	Orders  int
	Total   decimal.Decimal
}

// Report is the sales summary for one period.
type Report struct {
	Period     Period
	From, To   time.Time
	Records    []order.SaleRecord
	Rows       []Row
	GrandTotal decimal.Decimal
}

// Service computes sales reports from the order repository.
type Service struct {
	orders order.Repository
	now    func() time.Time
}

// NewService creates a report Service.
func NewService(orders order.Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// Sales lists sales falling inside the given period's window, newest first,
// together with per-product aggregates and the grand total.
func (s *Service) Sales(ctx context.Context, period Period) (*Report, error) {
	from, to := window(period, s.now())

	all, err := s.orders.ListSales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}

	var records []order.SaleRecord
	for _, r := range all {
		if r.Date.Before(from) || !r.Date.Before(to) {
			continue
		}
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})

	byProduct := make(map[string]*Row)
	var productOrder []string
	grand := decimal.Zero
	for _, r := range records {
		row, ok := byProduct[r.Product]
		if !ok {
			row = &Row{Product: r.Product}
			byProduct[r.Product] = row
			productOrder = append(productOrder, r.Product)
		}
		row.Orders++
		row.Total = row.Total.Add(r.Total)
		grand = grand.Add(r.Total)
	}

	rows := make([]Row, 0, len(productOrder))
	for _, p := range productOrder {
		rows = append(rows, *byProduct[p])
	}

	return &Report{
		Period:     period,
		From:       from,
		To:         to,
		Records:    records,
		Rows:       rows,
		GrandTotal: grand.Round(2),
	}, nil
}

// window returns the half-open [from, to) interval for the period containing
// now, in now's location.
func window(period Period, now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch period {
	case PeriodWeekly:
		wd := int(day.Weekday())
		if wd == 0 {
			wd = 7 // Sunday closes the week
		}
		start := day.AddDate(0, 0, -(wd - 1))
		return start, start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}
