package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/fzokart/internal/domain/address"
)

func decodeAddressPatch(r *http.Request) (address.Patch, error) {
	var p address.Patch
	strField := func(dst **string) func(d *jx.Decoder) error {
		return func(d *jx.Decoder) error {
			s, err := decodeOptString(d)
			*dst = &s
			return err
		}
	}
	fields := map[string]func(d *jx.Decoder) error{
		"fullName":     strField(&p.FullName),
		"phone":        strField(&p.Phone),
		"street":       strField(&p.Street),
		"addressLine2": strField(&p.AddressLine2),
		"city":         strField(&p.City),
		"state":        strField(&p.State),
		"pincode":      strField(&p.Pincode),
		"country":      strField(&p.Country),
		"type":         strField(&p.Type),
		"isDefault": func(d *jx.Decoder) error {
			b, err := d.Bool()
			p.IsDefault = &b
			return err
		},
	}
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if f, ok := fields[key]; ok {
			return f(d)
		}
		return d.Skip()
	})
	return p, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	p, err := decodeAddressPatch(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	a := &address.Address{
		FullName:     deref(p.FullName),
		Phone:        deref(p.Phone),
		Street:       deref(p.Street),
		AddressLine2: deref(p.AddressLine2),
		City:         deref(p.City),
		State:        deref(p.State),
		Pincode:      deref(p.Pincode),
		Country:      deref(p.Country),
		Type:         address.Type(deref(p.Type)),
		IsDefault:    p.IsDefault != nil && *p.IsDefault,
	}

	created, err := h.addresses.Add(r.Context(), currentUser(r.Context()).ID, a)
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusCreated, "address", func(e *jx.Encoder) { encodeAddress(e, created) })
}

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	list, err := h.addresses.List(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "addresses", func(e *jx.Encoder) {
		e.ArrStart()
		for i := range list {
			encodeAddress(e, &list[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	a, err := h.addresses.Get(r.Context(), currentUser(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "address", func(e *jx.Encoder) { encodeAddress(e, a) })
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	p, err := decodeAddressPatch(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	a, err := h.addresses.Update(r.Context(), currentUser(r.Context()).ID, chi.URLParam(r, "id"), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "address", func(e *jx.Encoder) { encodeAddress(e, a) })
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.addresses.Delete(r.Context(), currentUser(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}
