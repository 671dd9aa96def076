package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/andiko/storefront/internal/domain/cart"
	"github.com/andiko/storefront/internal/domain/checkout"
	"github.com/andiko/storefront/internal/domain/product"
)

// cartView is a point-in-time snapshot taken under the session lock, so the
// rendered items and total always belong to the same cart state.
type cartView struct {
	items []cart.Item
	total string
}

func snapshot(c *cart.Cart) cartView {
	return cartView{items: c.Items(), total: c.Total().StringFixed(2)}
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	_, token, err := h.requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var view cartView
	_ = h.carts.Get(token).With(func(c *cart.Cart) error {
		view = snapshot(c)
		return nil
	})
	writeCart(w, view)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	_, token, err := h.requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	productID := ""
	quantity := 1
	err = decodeObj(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil || productID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	// Snapshot the product here: the cart stores name and price as seen at
	// add time and never re-reads the catalog for an existing entry.
	p, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	var view cartView
	err = h.carts.Get(token).With(func(c *cart.Cart) error {
		if err := c.AddItem(p.ID, p.Name, p.Price, quantity); err != nil {
			return err
		}
		view = snapshot(c)
		return nil
	})
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeCart(w, view)
}

func (h *Handler) handleIncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, func(c *cart.Cart, id string) error { return c.Increase(id) })
}

func (h *Handler) handleDecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, func(c *cart.Cart, id string) error { return c.Decrease(id) })
}

func (h *Handler) mutateItem(w http.ResponseWriter, r *http.Request, fn func(c *cart.Cart, id string) error) {
	_, token, err := h.requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id := r.PathValue("id")
	var view cartView
	err = h.carts.Get(token).With(func(c *cart.Cart) error {
		if err := fn(c, id); err != nil {
			return err
		}
		view = snapshot(c)
		return nil
	})
	if err != nil {
		writeCartError(w, err)
		return
	}
	writeCart(w, view)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	_, token, err := h.requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	_ = h.carts.Get(token).With(func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	u, token, err := h.requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var address, note string
	err = decodeObj(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "address":
			address, err = d.Str()
		case "note":
			note, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if address == "" {
		address = u.Address
	}

	receipt, err := h.checkout.Submit(r.Context(), h.carts.Get(token), checkout.SubmitRequest{
		Address:  address,
		Note:     note,
		Customer: u,
	})
	if err != nil {
		var persistErr *checkout.PersistenceError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, checkout.ErrSubmitInFlight):
			writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &persistErr):
			writeError(w, http.StatusBadGateway, persistErr.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(receipt.OrderID) })
			e.Field("total", func(e *jx.Encoder) { encDecimal(e, receipt.Total) })
			e.Field("description", func(e *jx.Encoder) { e.Str(receipt.Description) })
			e.Field("whatsappLink", func(e *jx.Encoder) { e.Str(receipt.HandoffLink) })
			if receipt.HandoffWarning != "" {
				e.Field("warning", func(e *jx.Encoder) { e.Str(receipt.HandoffWarning) })
			}
		})
	})
}

func writeCart(w http.ResponseWriter, view cartView) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, it := range view.items {
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
							e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
							e.Field("unitPrice", func(e *jx.Encoder) { encDecimal(e, it.UnitPrice) })
							e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
							e.Field("subtotal", func(e *jx.Encoder) { encDecimal(e, it.Subtotal()) })
						})
					}
				})
			})
			e.Field("total", func(e *jx.Encoder) { e.Num(jx.Num(view.total)) })
		})
	})
}

func writeCartError(w http.ResponseWriter, err error) {
	var nfErr *cart.ItemNotFoundError
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrNegativePrice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &nfErr):
		writeError(w, http.StatusNotFound, nfErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
