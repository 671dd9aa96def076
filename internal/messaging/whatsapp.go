// Package messaging implements the WhatsApp order hand-off.
//
// The hand-off is a best-effort notification: the canonical outcome of a
// checkout is the persisted order, and a failure here is surfaced as a
// warning, never as a checkout failure.
package messaging

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/andiko/storefront/internal/domain/cart"
	"github.com/andiko/storefront/internal/domain/checkout"
)

// ErrNoDispatcher is returned by Send when no gateway is configured and the
// server therefore cannot dispatch the message itself. The wa.me link is
// still returned so the client can open it on the device.
var ErrNoDispatcher = errors.New("no message dispatcher configured")

var _ checkout.Messenger = (*WhatsApp)(nil)

// Config holds the WhatsApp hand-off settings.
type Config struct {
	// Phone is the sales number that receives order messages, in
	// international format without the plus sign, e.g. "59165371410".
	Phone string
	// GatewayURL is an optional HTTP endpoint that relays the message to
	// WhatsApp server-side. Empty means link-only operation.
	GatewayURL string
}

// WhatsApp composes order messages and dispatches them through an optional
// gateway endpoint.
type WhatsApp struct {
	phone      string
	gatewayURL string
	client     *http.Client
}

// NewWhatsApp creates a WhatsApp messenger with an instrumented HTTP client.
func NewWhatsApp(cfg Config) *WhatsApp {
	return &WhatsApp{
		phone:      cfg.Phone,
		gatewayURL: cfg.GatewayURL,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

// Send builds the order message and wa.me link, then POSTs the message to the
// gateway when one is configured. The link is returned even when dispatch
// fails.
func (w *WhatsApp) Send(ctx context.Context, msg checkout.OrderMessage) (string, error) {
	text := ComposeText(msg)
	link := Link(w.phone, text)

	if w.gatewayURL == "" {
		return link, ErrNoDispatcher
	}

	if err := w.dispatch(ctx, text); err != nil {
		return link, errors.Wrap(err, "dispatch to gateway")
	}
	return link, nil
}

func (w *WhatsApp) dispatch(ctx context.Context, text string) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("phone", func(e *jx.Encoder) { e.Str(w.phone) })
		e.Field("text", func(e *jx.Encoder) { e.Str(text) })
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.gatewayURL, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// ComposeText renders the order message the customer sends to the sales
// channel. Wording matches the storefront's Spanish UI.
func ComposeText(msg checkout.OrderMessage) string {
	var b strings.Builder
	b.WriteString("Hola, quiero hacer un pedido:\n")
	fmt.Fprintf(&b, "📦 %s\n", msg.Description)
	if msg.CustomerName != "" {
		fmt.Fprintf(&b, "👤 Cliente: %s\n", msg.CustomerName)
	}
	if msg.CustomerPhone != "" {
		fmt.Fprintf(&b, "📞 Teléfono: %s\n", msg.CustomerPhone)
	}
	fmt.Fprintf(&b, "🏠 Dirección: %s\n", msg.Address)
	if msg.Note != "" {
		fmt.Fprintf(&b, "📝 Nota: %s\n", msg.Note)
	}
	fmt.Fprintf(&b, "💵 Total: %s", cart.FormatPrice(msg.Total))
	return b.String()
}

// Link builds the wa.me URL that opens a chat with the given phone number and
// the message text prefilled.
func Link(phone, text string) string {
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(text)
}
