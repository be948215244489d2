package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/fzokart/internal/domain/order"
)

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var addressID string
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		if key != "addressId" {
			return d.Skip()
		}
		addressID, err = decodeOptString(d)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), currentUser(r.Context()).ID, addressID)
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusCreated, "order", func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetUserOrders(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeOrders(w, orders)
}

// listAllOrders is the admin view over every customer's orders.
func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetAllOrders(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeOrders(w, orders)
}

func writeOrders(w http.ResponseWriter, orders []order.Order) {
	success(w, http.StatusOK, "orders", func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"), order.Viewer{
		UserID:  u.ID,
		IsAdmin: u.IsAdmin(),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "order", func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var status string
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		if key != "status" {
			return d.Skip()
		}
		status, err = decodeOptString(d)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	o, err := h.orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "order", func(e *jx.Encoder) { encodeOrder(e, o) })
}
