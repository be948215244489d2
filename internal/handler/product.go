package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/fzokart/internal/domain/product"
)

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.products.List(r.Context(), product.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	pages := 0
	if page.Limit > 0 {
		pages = int(math.Ceil(float64(page.Total) / float64(page.Limit)))
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", str("success"))
			e.Field("results", func(e *jx.Encoder) { e.Int(len(page.Products)) })
			e.Field("data", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("products", func(e *jx.Encoder) { encodeProducts(e, page.Products) })
					e.Field("total", func(e *jx.Encoder) { e.Int(page.Total) })
					e.Field("page", func(e *jx.Encoder) { e.Int(page.Page) })
					e.Field("pages", func(e *jx.Encoder) { e.Int(pages) })
				})
			})
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "product", func(e *jx.Encoder) { encodeProduct(e, p) })
}

// decodeProductPatch reads the writable product fields. Absent fields stay nil.
func decodeProductPatch(r *http.Request) (product.Patch, string, error) {
	var (
		pt   product.Patch
		slug string
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "title", "name":
			s, err := decodeOptString(d)
			pt.Title = &s
			return err
		case "slug":
			var err error
			slug, err = decodeOptString(d)
			return err
		case "description":
			s, err := decodeOptString(d)
			pt.Description = &s
			return err
		case "price":
			v, err := decodeDecimal(d)
			pt.Price = &v
			return err
		case "stock":
			n, err := decodeInt(d)
			pt.Stock = &n
			return err
		case "brand":
			s, err := decodeOptString(d)
			pt.Brand = &s
			return err
		case "category":
			s, err := decodeOptString(d)
			pt.Category = &s
			return err
		case "images":
			imgs, err := decodeStrings(d)
			pt.Images = imgs
			return err
		case "isActive":
			b, err := d.Bool()
			pt.IsActive = &b
			return err
		default:
			return d.Skip()
		}
	})
	return pt, slug, err
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	pt, slug, err := decodeProductPatch(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p := &product.Product{Slug: slug}
	pt.Apply(p)

	created, err := h.products.Create(r.Context(), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusCreated, "product", func(e *jx.Encoder) { encodeProduct(e, created) })
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	pt, _, err := decodeProductPatch(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), pt)
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "product", func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) listProductReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListProductReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	success(w, http.StatusOK, "reviews", func(e *jx.Encoder) {
		e.ArrStart()
		for i := range reviews {
			encodeReview(e, &reviews[i])
		}
		e.ArrEnd()
	})
}
