package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/andiko/storefront/internal/domain/product"
)

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range products {
				encProduct(e, &products[i])
			}
		})
	})
}

func encProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { encDecimal(e, p.Price) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("image", func(e *jx.Encoder) { e.Str(p.Image) })
	})
}
