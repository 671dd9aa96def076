package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andiko/storefront/internal/domain/cart"
	"github.com/andiko/storefront/internal/domain/order"
	"github.com/andiko/storefront/internal/domain/user"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	mu      sync.Mutex
	created []*order.Order
	err     error
	block   chan struct{} // when set, Create blocks until closed
	entered chan struct{} // when set, receives once per Create call on entry
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	if m.entered != nil {
		select {
		case m.entered <- struct{}{}:
		default:
		}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) ListSales(_ context.Context) ([]order.SaleRecord, error) {
	return nil, nil
}

func (m *mockOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

type mockMessenger struct {
	mu    sync.Mutex
	sent  []OrderMessage
	link  string
	err   error
}

func (m *mockMessenger) Send(_ context.Context, msg OrderMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.link, m.err
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sessionWith(t *testing.T, items ...cart.Item) *cart.Session {
	t.Helper()
	sess := cart.NewSession()
	require.NoError(t, sess.With(func(c *cart.Cart) error {
		for _, it := range items {
			if err := c.AddItem(it.ID, it.Name, it.UnitPrice, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	}))
	return sess
}

func cartLen(t *testing.T, sess *cart.Session) int {
	t.Helper()
	var n int
	require.NoError(t, sess.With(func(c *cart.Cart) error {
		n = c.Len()
		return nil
	}))
	return n
}

// --- Tests ---

func TestSubmit_EmptyCart(t *testing.T) {
	repo := &mockOrderRepo{}
	msgr := &mockMessenger{}
	svc := NewService(repo, msgr)

	_, err := svc.Submit(context.Background(), cart.NewSession(), SubmitRequest{Address: "Calle X"})

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, repo.count())
	assert.Empty(t, msgr.sent)
}

func TestSubmit_Success_ClearsCart(t *testing.T) {
	repo := &mockOrderRepo{}
	msgr := &mockMessenger{link: "https://wa.me/59165371410?text=pedido"}
	svc := NewService(repo, msgr)

	sess := sessionWith(t, cart.Item{ID: "2", Name: "Combo", UnitPrice: d("20"), Quantity: 1})

	receipt, err := svc.Submit(context.Background(), sess, SubmitRequest{
		Address:  "Calle X",
		Customer: &user.User{ID: "u1", Name: "Ana", Phone: "70000000"},
	})

	require.NoError(t, err)
	assert.Equal(t, "1 x Combo (Bs. 20.00)", receipt.Description)
	assert.True(t, d("20.00").Equal(receipt.Total))
	assert.Equal(t, "https://wa.me/59165371410?text=pedido", receipt.HandoffLink)
	assert.Empty(t, receipt.HandoffWarning)

	require.Equal(t, 1, repo.count())
	o := repo.created[0]
	assert.Equal(t, receipt.OrderID, o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "1 x Combo (Bs. 20.00)", o.ItemsDescription)
	assert.True(t, d("20.00").Equal(o.Amount))
	assert.Equal(t, "Calle X", o.Address)

	require.Len(t, msgr.sent, 1)
	assert.Equal(t, "Ana", msgr.sent[0].CustomerName)

	assert.Equal(t, 0, cartLen(t, sess))
}

func TestSubmit_PersistenceFailure_RetainsCart(t *testing.T) {
	repo := &mockOrderRepo{err: errors.New("connection refused")}
	msgr := &mockMessenger{}
	svc := NewService(repo, msgr)

	sess := sessionWith(t,
		cart.Item{ID: "1", Name: "Frituras 15gr", UnitPrice: d("3"), Quantity: 2},
		cart.Item{ID: "2", Name: "Combo", UnitPrice: d("20"), Quantity: 1},
	)

	_, err := svc.Submit(context.Background(), sess, SubmitRequest{Address: "Calle X"})

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.ErrorContains(t, persistErr, "connection refused")

	// Cart and total unchanged; no hand-off attempted.
	assert.Empty(t, msgr.sent)
	require.NoError(t, sess.With(func(c *cart.Cart) error {
		assert.Equal(t, 2, c.Len())
		assert.True(t, d("26.00").Equal(c.Total()))
		return nil
	}))

	// A retry after the store recovers succeeds and clears the cart.
	repo.mu.Lock()
	repo.err = nil
	repo.mu.Unlock()

	_, err = svc.Submit(context.Background(), sess, SubmitRequest{Address: "Calle X"})
	require.NoError(t, err)
	assert.Equal(t, 0, cartLen(t, sess))
}

func TestSubmit_HandoffFailure_OrderStillPlaced(t *testing.T) {
	repo := &mockOrderRepo{}
	msgr := &mockMessenger{link: "https://wa.me/59165371410", err: errors.New("no message dispatcher configured")}
	svc := NewService(repo, msgr)

	sess := sessionWith(t, cart.Item{ID: "2", Name: "Combo", UnitPrice: d("20"), Quantity: 1})

	receipt, err := svc.Submit(context.Background(), sess, SubmitRequest{Address: "Calle X"})

	// Persistence is the authority: the order stands, the warning is carried.
	require.NoError(t, err)
	assert.Equal(t, 1, repo.count())
	assert.Contains(t, receipt.HandoffWarning, "no message dispatcher")
	assert.Equal(t, "https://wa.me/59165371410", receipt.HandoffLink)
	assert.Equal(t, 0, cartLen(t, sess))
}

func TestSubmit_NoteForwarded(t *testing.T) {
	repo := &mockOrderRepo{}
	msgr := &mockMessenger{}
	svc := NewService(repo, msgr)

	sess := sessionWith(t, cart.Item{ID: "1", Name: "Frituras 15gr", UnitPrice: d("3"), Quantity: 1})

	_, err := svc.Submit(context.Background(), sess, SubmitRequest{
		Address: "Calle X",
		Note:    "sin sal",
	})

	require.NoError(t, err)
	require.Equal(t, 1, repo.count())
	assert.Equal(t, "sin sal", repo.created[0].Note)
	require.Len(t, msgr.sent, 1)
	assert.Equal(t, "sin sal", msgr.sent[0].Note)
}

func TestSubmit_RejectsReentrantSubmission(t *testing.T) {
	block := make(chan struct{})
	entered := make(chan struct{}, 1)
	repo := &mockOrderRepo{block: block, entered: entered}
	msgr := &mockMessenger{}
	svc := NewService(repo, msgr)

	sess := sessionWith(t, cart.Item{ID: "2", Name: "Combo", UnitPrice: d("20"), Quantity: 1})

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), sess, SubmitRequest{Address: "Calle X"})
		firstDone <- err
	}()

	// Wait until the first submit has reached persistence before probing.
	<-entered

	// Second submit while the first is stuck in persistence.
	require.Eventually(t, func() bool {
		_, err := svc.Submit(context.Background(), sess, SubmitRequest{Address: "Calle X"})
		return errors.Is(err, ErrSubmitInFlight)
	}, time.Second, 5*time.Millisecond)

	close(block)
	require.NoError(t, <-firstDone)

	// Exactly one order despite the double tap.
	assert.Equal(t, 1, repo.count())
}

// Mirrors the documented end-to-end flow through the submission step.
func TestSubmit_EndToEndExample(t *testing.T) {
	repo := &mockOrderRepo{}
	msgr := &mockMessenger{}
	svc := NewService(repo, msgr)

	sess := cart.NewSession()
	require.NoError(t, sess.With(func(c *cart.Cart) error {
		require.NoError(t, c.AddItem("1", "Frituras 15gr", d("3"), 2))
		require.NoError(t, c.AddItem("2", "Combo", d("20"), 1))
		require.True(t, d("26.00").Equal(c.Total()))
		require.NoError(t, c.Decrease("1"))
		require.True(t, d("23.00").Equal(c.Total()))
		require.NoError(t, c.Decrease("1"))
		return nil
	}))

	receipt, err := svc.Submit(context.Background(), sess, SubmitRequest{Address: "Calle X"})

	require.NoError(t, err)
	assert.Equal(t, "1 x Combo (Bs. 20.00)", receipt.Description)
	assert.True(t, d("20.00").Equal(receipt.Total))
	assert.Equal(t, 0, cartLen(t, sess))
}
