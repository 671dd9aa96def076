// Package handler is the HTTP presentation adapter for the storefront. It
// owns no business rules: every endpoint decodes its request, delegates to a
// domain service, and maps domain errors to status codes.
package handler

import (
	"net/http"

	"github.com/andiko/storefront/internal/domain/cart"
	"github.com/andiko/storefront/internal/domain/checkout"
	"github.com/andiko/storefront/internal/domain/product"
	"github.com/andiko/storefront/internal/domain/report"
	"github.com/andiko/storefront/internal/domain/user"
)

// Handler serves the storefront API.
type Handler struct {
	products product.Repository
	users    *user.Service
	checkout *checkout.Service
	reports  *report.Service
	carts    *cart.Store
	sessions *sessionRegistry
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	users *user.Service,
	checkoutSvc *checkout.Service,
	reports *report.Service,
	carts *cart.Store,
) *Handler {
	return &Handler{
		products: products,
		users:    users,
		checkout: checkoutSvc,
		reports:  reports,
		carts:    carts,
		sessions: newSessionRegistry(),
	}
}

// Register mounts all API routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("POST /api/logout", h.handleLogout)

	mux.HandleFunc("GET /api/products", h.handleListProducts)

	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddItem)
	mux.HandleFunc("POST /api/cart/items/{id}/increase", h.handleIncreaseItem)
	mux.HandleFunc("POST /api/cart/items/{id}/decrease", h.handleDecreaseItem)
	mux.HandleFunc("DELETE /api/cart", h.handleClearCart)

	mux.HandleFunc("POST /api/checkout", h.handleCheckout)

	mux.HandleFunc("GET /api/sales", h.handleSales)
}
