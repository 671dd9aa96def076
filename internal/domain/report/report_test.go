package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andiko/storefront/internal/domain/order"
)

type stubOrderRepo struct {
	sales []order.SaleRecord
	err   error
}

func (s *stubOrderRepo) Create(context.Context, *order.Order) error { return nil }

func (s *stubOrderRepo) ListSales(context.Context) ([]order.SaleRecord, error) {
	return s.sales, s.err
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodDaily, false},
		{"daily", PeriodDaily, false},
		{"weekly", PeriodWeekly, false},
		{"monthly", PeriodMonthly, false},
		{"yearly", "", true},
		{"Daily", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPeriod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindow(t *testing.T) {
	// Wednesday, 2025-06-18, mid-afternoon.
	now := time.Date(2025, time.June, 18, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period   Period
		from, to time.Time
	}{
		{
			PeriodDaily,
			time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 19, 0, 0, 0, 0, time.UTC),
		},
		{
			PeriodWeekly,
			time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC), // Monday
			time.Date(2025, time.June, 23, 0, 0, 0, 0, time.UTC),
		},
		{
			PeriodMonthly,
			time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			from, to := window(tt.period, now)
			assert.True(t, tt.from.Equal(from), "from: want %s, got %s", tt.from, from)
			assert.True(t, tt.to.Equal(to), "to: want %s, got %s", tt.to, to)
		})
	}
}

func TestWindow_SundayClosesWeek(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2025, time.June, 22, 10, 0, 0, 0, time.UTC)
	from, to := window(PeriodWeekly, sunday)
	assert.Equal(t, time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, time.June, 23, 0, 0, 0, 0, time.UTC), to)
}

func TestSales(t *testing.T) {
	now := time.Date(2025, time.June, 18, 15, 0, 0, 0, time.UTC)
	day := func(d, h int) time.Time {
		return time.Date(2025, time.June, d, h, 0, 0, 0, time.UTC)
	}

	repo := &stubOrderRepo{sales: []order.SaleRecord{
		{ID: "a", Product: "2 x Frituras 15gr (Bs. 3.00)", Total: d("6.00"), Date: day(18, 9)},
		{ID: "b", Product: "1 x Combo (Bs. 20.00)", Total: d("20.00"), Date: day(18, 12)},
		{ID: "c", Product: "1 x Combo (Bs. 20.00)", Total: d("20.00"), Date: day(17, 11)},
		{ID: "d", Product: "1 x Combo (Bs. 20.00)", Total: d("20.00"), Date: day(2, 10)},
	}}

	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	t.Run("daily", func(t *testing.T) {
		rep, err := svc.Sales(context.Background(), PeriodDaily)
		require.NoError(t, err)

		// Newest first, yesterday excluded.
		require.Len(t, rep.Records, 2)
		assert.Equal(t, "b", rep.Records[0].ID)
		assert.Equal(t, "a", rep.Records[1].ID)
		assert.True(t, d("26.00").Equal(rep.GrandTotal))

		require.Len(t, rep.Rows, 2)
		assert.Equal(t, "1 x Combo (Bs. 20.00)", rep.Rows[0].Product)
		assert.Equal(t, 1, rep.Rows[0].Orders)
	})

	t.Run("weekly aggregates by product", func(t *testing.T) {
		rep, err := svc.Sales(context.Background(), PeriodWeekly)
		require.NoError(t, err)

		require.Len(t, rep.Records, 3)
		require.Len(t, rep.Rows, 2)

		combos := rep.Rows[0]
		assert.Equal(t, "1 x Combo (Bs. 20.00)", combos.Product)
		assert.Equal(t, 2, combos.Orders)
		assert.True(t, d("40.00").Equal(combos.Total))
		assert.True(t, d("46.00").Equal(rep.GrandTotal))
	})

	t.Run("monthly includes whole month", func(t *testing.T) {
		rep, err := svc.Sales(context.Background(), PeriodMonthly)
		require.NoError(t, err)
		assert.Len(t, rep.Records, 4)
		assert.True(t, d("66.00").Equal(rep.GrandTotal))
	})

	t.Run("empty window", func(t *testing.T) {
		empty := NewService(&stubOrderRepo{})
		empty.now = func() time.Time { return now }

		rep, err := empty.Sales(context.Background(), PeriodDaily)
		require.NoError(t, err)
		assert.Empty(t, rep.Records)
		assert.Empty(t, rep.Rows)
		assert.True(t, rep.GrandTotal.IsZero())
	})
}
