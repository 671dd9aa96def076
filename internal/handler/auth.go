package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/andiko/storefront/internal/domain/user"
)

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var p user.Profile
	err := decodeObj(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "email":
			p.Email, err = d.Str()
		case "password":
			p.Password, err = d.Str()
		case "phone":
			p.Phone, err = d.Str()
		case "address":
			p.Address, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Register(r.Context(), p)
	switch {
	case errors.Is(err, user.ErrMissingFields):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encUser(e, u)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var email, password string
	err := decodeObj(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Login(r.Context(), email, password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}

	token := h.sessions.issue(u)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("token", func(e *jx.Encoder) { e.Str(token) })
			e.Field("user", func(e *jx.Encoder) { encUser(e, u) })
		})
	})
}

// handleLogout revokes the session token and discards the session's cart.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	_, token, err := h.requireUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.sessions.revoke(token)
	h.carts.Drop(token)
	w.WriteHeader(http.StatusNoContent)
}

func encUser(e *jx.Encoder, u *user.User) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(u.ID) })
		e.Field("email", func(e *jx.Encoder) { e.Str(u.Email) })
		e.Field("name", func(e *jx.Encoder) { e.Str(u.Name) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(u.Phone) })
		e.Field("address", func(e *jx.Encoder) { e.Str(u.Address) })
		e.Field("admin", func(e *jx.Encoder) { e.Bool(u.Admin) })
	})
}
