package messaging

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andiko/storefront/internal/domain/checkout"
)

func testMessage() checkout.OrderMessage {
	return checkout.OrderMessage{
		Description:   "2 x Frituras 15gr (Bs. 3.00), 1 x Combo (Bs. 20.00)",
		Total:         decimal.RequireFromString("26.00"),
		Address:       "Calle X 123",
		CustomerName:  "Ana",
		CustomerPhone: "70000000",
		Note:          "sin sal",
	}
}

func TestComposeText(t *testing.T) {
	got := ComposeText(testMessage())

	want := "Hola, quiero hacer un pedido:\n" +
		"📦 2 x Frituras 15gr (Bs. 3.00), 1 x Combo (Bs. 20.00)\n" +
		"👤 Cliente: Ana\n" +
		"📞 Teléfono: 70000000\n" +
		"🏠 Dirección: Calle X 123\n" +
		"📝 Nota: sin sal\n" +
		"💵 Total: Bs. 26.00"
	assert.Equal(t, want, got)
}

func TestComposeText_OptionalLinesOmitted(t *testing.T) {
	msg := testMessage()
	msg.CustomerName = ""
	msg.CustomerPhone = ""
	msg.Note = ""

	got := ComposeText(msg)

	assert.NotContains(t, got, "Cliente")
	assert.NotContains(t, got, "Teléfono")
	assert.NotContains(t, got, "Nota")
	assert.Contains(t, got, "🏠 Dirección: Calle X 123")
	assert.Contains(t, got, "💵 Total: Bs. 26.00")
}

func TestLink(t *testing.T) {
	link := Link("59165371410", "Hola, quiero hacer un pedido:\n📦 1 x Combo (Bs. 20.00)")

	require.True(t, strings.HasPrefix(link, "https://wa.me/59165371410?text="), link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hola, quiero hacer un pedido:\n📦 1 x Combo (Bs. 20.00)", u.Query().Get("text"))
}

func TestSend_NoGateway(t *testing.T) {
	w := NewWhatsApp(Config{Phone: "59165371410"})

	link, err := w.Send(context.Background(), testMessage())

	assert.ErrorIs(t, err, ErrNoDispatcher)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/59165371410?text="), link)
}

func TestSend_Gateway(t *testing.T) {
	var gotPhone, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "phone":
				v, err := d.Str()
				gotPhone = v
				return err
			case "text":
				v, err := d.Str()
				gotText = v
				return err
			default:
				return d.Skip()
			}
		}))
		rw.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w := NewWhatsApp(Config{Phone: "59165371410", GatewayURL: srv.URL})

	link, err := w.Send(context.Background(), testMessage())

	require.NoError(t, err)
	assert.NotEmpty(t, link)
	assert.Equal(t, "59165371410", gotPhone)
	assert.Contains(t, gotText, "Hola, quiero hacer un pedido:")
	assert.Contains(t, gotText, "💵 Total: Bs. 26.00")
}

func TestSend_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWhatsApp(Config{Phone: "59165371410", GatewayURL: srv.URL})

	link, err := w.Send(context.Background(), testMessage())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	// The link is still usable by the client.
	assert.True(t, strings.HasPrefix(link, "https://wa.me/59165371410?text="), link)
}
