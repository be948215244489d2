package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/fzokart/internal/domain/user"
)

// sessionResponse mirrors the storefront login payload: tokens next to data.
func sessionResponse(w http.ResponseWriter, code int, s *user.Session) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", str("success"))
			e.Field("token", str(s.Token))
			if s.RefreshToken != "" {
				e.Field("refreshToken", str(s.RefreshToken))
			}
			e.Field("data", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("user", func(e *jx.Encoder) { encodeUser(e, s.User) })
				})
			})
		})
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "name":
			req.Name, err = decodeOptString(d)
		case "email":
			req.Email, err = decodeOptString(d)
		case "password":
			req.Password, err = decodeOptString(d)
		case "phone":
			req.Phone, err = decodeOptString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	s, err := h.users.Register(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	sessionResponse(w, http.StatusCreated, s)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "email":
			email, err = decodeOptString(d)
		case "password":
			password, err = decodeOptString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	s, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		fail(w, r, err)
		return
	}
	sessionResponse(w, http.StatusOK, s)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		if key != "refreshToken" {
			return d.Skip()
		}
		token, err = decodeOptString(d)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if token == "" {
		fail(w, r, errNotLoggedIn)
		return
	}

	s, err := h.users.Refresh(r.Context(), token)
	if err != nil {
		fail(w, r, err)
		return
	}
	sessionResponse(w, http.StatusOK, s)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Profile(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "user", func(e *jx.Encoder) { encodeUser(e, u) })
}
