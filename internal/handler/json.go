package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const decodeBufSize = 4096

// writeJSON encodes a response body with fn and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard error body: {"code":400,"message":"..."}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// writeInternalError logs the error and responds 500 without leaking details.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeObj decodes the request body as a single JSON object, dispatching
// each key to fn. Unknown keys must be skipped by the caller via d.Skip.
func decodeObj(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	d := jx.Decode(r.Body, decodeBufSize)
	return d.Obj(fn)
}

// encDecimal writes a monetary amount as a JSON number with two decimal
// places, preserving exact decimal formatting.
func encDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}
