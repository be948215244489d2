package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/fzokart/internal/domain/cart"
)

func cartResponse(w http.ResponseWriter, r *http.Request, c *cart.Cart, err error) {
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "cart", func(e *jx.Encoder) { encodeCart(e, c) })
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.GetCart(r.Context(), currentUser(r.Context()).ID)
	cartResponse(w, r, c, err)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var productID string
	quantity := 1
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "productId":
			productID, err = decodeOptString(d)
		case "quantity":
			quantity, err = decodeInt(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	c, err := h.carts.AddToCart(r.Context(), currentUser(r.Context()).ID, productID, quantity)
	cartResponse(w, r, c, err)
}

// updateCartItem requires an explicit quantity. A body without one, or with
// null, is rejected rather than read as zero, which would drop the line.
func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var quantity *int
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" || d.Next() == jx.Null {
			return d.Skip()
		}
		n, err := decodeInt(d)
		quantity = &n
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if quantity == nil {
		fail(w, r, cart.ErrMissingQuantity)
		return
	}

	c, err := h.carts.UpdateCartItem(r.Context(), currentUser(r.Context()).ID, chi.URLParam(r, "itemId"), *quantity)
	cartResponse(w, r, c, err)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveFromCart(r.Context(), currentUser(r.Context()).ID, chi.URLParam(r, "itemId"))
	cartResponse(w, r, c, err)
}

// mergeCart accepts {"items": [{"productId": "...", "quantity": 2}]}.
func (h *Handler) mergeCart(w http.ResponseWriter, r *http.Request) {
	var lines []cart.MergeLine
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var l cart.MergeLine
			err := d.Obj(func(d *jx.Decoder, key string) (err error) {
				switch key {
				case "productId", "id":
					l.ProductID, err = decodeOptString(d)
				case "quantity":
					l.Quantity, err = decodeInt(d)
				default:
					err = d.Skip()
				}
				return err
			})
			lines = append(lines, l)
			return err
		})
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	c, err := h.carts.MergeCart(r.Context(), currentUser(r.Context()).ID, lines)
	cartResponse(w, r, c, err)
}
