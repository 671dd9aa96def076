package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/andiko/storefront/internal/domain/cart"
	"github.com/andiko/storefront/internal/domain/order"
	"github.com/andiko/storefront/internal/domain/user"
)

// Sentinel errors for submission validation.
var (
	// ErrEmptyCart is returned when submitting an empty cart. No external
	// call is made in that case.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrSubmitInFlight is returned when a submission for the same session is
	// already in progress. Prevents double-submit producing duplicate orders.
	ErrSubmitInFlight = errors.New("order submission already in progress")
)

// PersistenceError wraps a failure of the order store. The cart is retained
// untouched so the user can retry.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving order: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// OrderMessage is the structured payload handed to the Messenger.
type OrderMessage struct {
	Description   string
	Address       string
	Note          string
	CustomerName  string
	CustomerPhone string
	Total         decimal.Decimal
}

// Messenger forwards order details to an external messaging channel. Send
// returns the channel link the customer can open locally; the error reports
// whether the server-side dispatch itself could be performed.
type Messenger interface {
	Send(ctx context.Context, msg OrderMessage) (link string, err error)
}

// SubmitRequest is the input for a single submission attempt.
type SubmitRequest struct {
	Address  string
	Note     string
	Customer *user.User
}

// Receipt is the outcome of a successful submission. HandoffWarning is set
// when the order was persisted but the messaging hand-off could not be
// dispatched; the order is still considered placed.
type Receipt struct {
	OrderID        string
	Total          decimal.Decimal
	Description    string
	HandoffLink    string
	HandoffWarning string
}

// Service runs the checkout workflow: persist the order, hand off to the
// messaging channel, clear the cart.
type Service struct {
	orders    order.Repository
	messenger Messenger
	tracer    trace.Tracer
}

// NewService creates a checkout Service.
func NewService(orders order.Repository, messenger Messenger) *Service {
	return &Service{
		orders:    orders,
		messenger: messenger,
		tracer:    otel.Tracer("storefront.checkout"),
	}
}

// Submit places an order from the session's current cart state.
//
// The session lock is held across the whole attempt, so the cart observed at
// step 1 is exactly the cart cleared at the end: either persistence succeeds
// and the cart is cleared, or it fails and the cart is retained unchanged.
// Persistence is the authority for "did the order happen"; the messaging
// hand-off is best-effort and a dispatch failure only yields a warning.
func (s *Service) Submit(ctx context.Context, sess *cart.Session, req SubmitRequest) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "Submit")
	defer span.End()

	if !sess.BeginSubmit() {
		span.SetStatus(codes.Error, ErrSubmitInFlight.Error())
		return nil, ErrSubmitInFlight
	}
	defer sess.EndSubmit()

	var receipt *Receipt
	err := sess.With(func(c *cart.Cart) error {
		if c.Len() == 0 {
			return ErrEmptyCart
		}

		total := c.Total()
		desc := c.Description()

		o := &order.Order{
			ID:               uuid.New().String(),
			ItemsDescription: desc,
			Amount:           total,
			Address:          req.Address,
			Note:             req.Note,
		}
		if req.Customer != nil {
			o.UserID = req.Customer.ID
		}

		if err := s.orders.Create(ctx, o); err != nil {
			return &PersistenceError{Err: err}
		}

		msg := OrderMessage{
			Description: desc,
			Address:     req.Address,
			Note:        req.Note,
			Total:       total,
		}
		if req.Customer != nil {
			msg.CustomerName = req.Customer.Name
			msg.CustomerPhone = req.Customer.Phone
		}

		receipt = &Receipt{
			OrderID:     o.ID,
			Total:       total,
			Description: desc,
		}

		link, herr := s.messenger.Send(ctx, msg)
		receipt.HandoffLink = link
		if herr != nil {
			receipt.HandoffWarning = herr.Error()
			zctx.From(ctx).Warn("Order hand-off not dispatched",
				zap.String("order_id", o.ID),
				zap.Error(herr),
			)
		}

		c.Clear()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", receipt.OrderID),
		attribute.String("order.total", receipt.Total.StringFixed(2)),
	)
	return receipt, nil
}
