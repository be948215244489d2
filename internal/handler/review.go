package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/fzokart/internal/domain/review"
)

// createReview answers with the review directly under data, the shape the
// storefront review widget reads.
func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	var req review.CreateRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "product", "productId":
			req.ProductID, err = decodeOptString(d)
		case "rating":
			req.Rating, err = decodeInt(d)
		case "comment":
			req.Comment, err = decodeOptString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	rv, err := h.reviews.CreateReview(r.Context(), currentUser(r.Context()).ID, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeReview(w, http.StatusCreated, rv)
}

// updateReview lets the author change rating and comment. Omitted fields
// keep their stored values.
func (h *Handler) updateReview(w http.ResponseWriter, r *http.Request) {
	var req review.UpdateRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "rating":
			req.Rating, err = decodeInt(d)
		case "comment":
			req.Comment, err = decodeOptString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	rv, err := h.reviews.UpdateReview(r.Context(), currentUser(r.Context()).ID, chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeReview(w, http.StatusOK, rv)
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())
	if err := h.reviews.DeleteReview(r.Context(), u.ID, u.IsAdmin(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

func writeReview(w http.ResponseWriter, code int, rv *review.Review) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", str("success"))
			e.Field("data", func(e *jx.Encoder) { encodeReview(e, rv) })
		})
	})
}
