package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/andiko/storefront/internal/domain/report"
)

// handleSales serves the admin sales report. The admin check gates a client
// view only; the report contains nothing beyond the caller's own store data.
func (h *Handler) handleSales(w http.ResponseWriter, r *http.Request) {
	u, _, err := h.requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if !u.Admin {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	period, err := report.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := h.reports.Sales(r.Context(), period)
	if err != nil {
		if errors.Is(err, report.ErrUnknownPeriod) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("period", func(e *jx.Encoder) { e.Str(string(rep.Period)) })
			e.Field("from", func(e *jx.Encoder) { e.Str(rep.From.Format(time.RFC3339)) })
			e.Field("to", func(e *jx.Encoder) { e.Str(rep.To.Format(time.RFC3339)) })
			e.Field("grandTotal", func(e *jx.Encoder) { encDecimal(e, rep.GrandTotal) })
			e.Field("rows", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, row := range rep.Rows {
						e.Obj(func(e *jx.Encoder) {
							e.Field("product", func(e *jx.Encoder) { e.Str(row.Product) })
							e.Field("orders", func(e *jx.Encoder) { e.Int(row.Orders) })
							e.Field("total", func(e *jx.Encoder) { encDecimal(e, row.Total) })
						})
					}
				})
			})
			e.Field("records", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, rec := range rep.Records {
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Str(rec.ID) })
							e.Field("product", func(e *jx.Encoder) { e.Str(rec.Product) })
							e.Field("total", func(e *jx.Encoder) { encDecimal(e, rec.Total) })
							e.Field("date", func(e *jx.Encoder) { e.Str(rec.Date.Format("2006-01-02")) })
						})
					}
				})
			})
		})
	})
}
