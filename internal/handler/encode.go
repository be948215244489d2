package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/fzokart/internal/domain/address"
	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/order"
	"github.com/xenking/fzokart/internal/domain/product"
	"github.com/xenking/fzokart/internal/domain/review"
	"github.com/xenking/fzokart/internal/domain/user"
)

func str(s string) func(e *jx.Encoder) { return func(e *jx.Encoder) { e.Str(s) } }

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

// encodeUser never includes the password hash.
func encodeUser(e *jx.Encoder, u *user.User) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", str(u.ID))
		e.Field("name", str(u.Name))
		e.Field("email", str(u.Email))
		e.Field("phone", str(u.Phone))
		e.Field("role", str(string(u.Role)))
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, u.CreatedAt) })
	})
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", str(p.ID))
		e.Field("title", str(p.Title))
		e.Field("slug", str(p.Slug))
		e.Field("description", str(p.Description))
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("brand", str(p.Brand))
		e.Field("category", str(p.Category))
		e.Field("images", func(e *jx.Encoder) {
			e.ArrStart()
			for _, img := range p.Images {
				e.Str(img)
			}
			e.ArrEnd()
		})
		e.Field("thumbnail", str(p.Thumbnail))
		e.Field("rating", func(e *jx.Encoder) { e.Float64(p.Rating) })
		e.Field("numReviews", func(e *jx.Encoder) { e.Int(p.NumReviews) })
		e.Field("isActive", func(e *jx.Encoder) { e.Bool(p.IsActive) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, p.CreatedAt) })
	})
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.ArrStart()
	for i := range products {
		encodeProduct(e, &products[i])
	}
	e.ArrEnd()
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", str(c.ID))
		e.Field("userId", str(c.UserID))
		e.Field("items", func(e *jx.Encoder) {
			e.ArrStart()
			for i := range c.Items {
				it := &c.Items[i]
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", str(it.ID))
					e.Field("productId", str(it.ProductID))
					e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
					if it.Product != nil {
						e.Field("product", func(e *jx.Encoder) { encodeProduct(e, it.Product) })
					}
				})
			}
			e.ArrEnd()
		})
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, c.Subtotal()) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeTime(e, c.UpdatedAt) })
	})
}

func encodeAddress(e *jx.Encoder, a *address.Address) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", str(a.ID))
		e.Field("fullName", str(a.FullName))
		e.Field("phone", str(a.Phone))
		e.Field("street", str(a.Street))
		e.Field("addressLine2", str(a.AddressLine2))
		e.Field("city", str(a.City))
		e.Field("state", str(a.State))
		e.Field("pincode", str(a.Pincode))
		e.Field("country", str(a.Country))
		e.Field("type", str(string(a.Type)))
		e.Field("isDefault", func(e *jx.Encoder) { e.Bool(a.IsDefault) })
	})
}

func encodeAddressSnapshot(e *jx.Encoder, a *order.AddressSnapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", str(a.ID))
		e.Field("fullName", str(a.FullName))
		e.Field("phone", str(a.Phone))
		e.Field("street", str(a.Street))
		e.Field("addressLine2", str(a.AddressLine2))
		e.Field("city", str(a.City))
		e.Field("state", str(a.State))
		e.Field("pincode", str(a.Pincode))
		e.Field("country", str(a.Country))
		e.Field("type", str(a.Type))
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", str(o.ID))
		e.Field("userId", str(o.UserID))
		e.Field("orderNumber", str(o.OrderNumber))
		e.Field("trackingId", str(o.TrackingID))
		e.Field("status", str(string(o.Status)))
		e.Field("totalAmount", func(e *jx.Encoder) { encodeDecimal(e, o.TotalAmount) })
		e.Field("items", func(e *jx.Encoder) {
			e.ArrStart()
			for i := range o.Items {
				it := &o.Items[i]
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", str(it.ID))
					e.Field("productId", str(it.ProductID))
					e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
					e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, it.Price) })
					if it.Product != nil {
						e.Field("product", func(e *jx.Encoder) { encodeProduct(e, it.Product) })
					}
				})
			}
			e.ArrEnd()
		})
		e.Field("address", func(e *jx.Encoder) { encodeAddressSnapshot(e, &o.Address) })
		e.Field("shippingDetails", func(e *jx.Encoder) {
			s := &o.Shipping
			e.Obj(func(e *jx.Encoder) {
				e.Field("orderNumber", str(s.OrderNumber))
				e.Field("trackingId", str(s.TrackingID))
				e.Field("shippingTo", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", str(s.To.Name))
						e.Field("phone", str(s.To.Phone))
					})
				})
				e.Field("shippingFrom", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("company", str(s.From.Company))
						e.Field("address", str(s.From.Address))
						e.Field("phone", str(s.From.Phone))
					})
				})
				e.Field("address", func(e *jx.Encoder) { encodeAddressSnapshot(e, &s.Address) })
			})
		})
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeTime(e, o.UpdatedAt) })
	})
}

func encodeReview(e *jx.Encoder, r *review.Review) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", str(r.ID))
		e.Field("rating", func(e *jx.Encoder) { e.Int(r.Rating) })
		e.Field("comment", str(r.Comment))
		e.Field("user", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", str(r.UserID))
				e.Field("name", str(r.AuthorName))
			})
		})
		e.Field("product", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", str(r.ProductID))
				e.Field("name", str(r.ProductTitle))
			})
		})
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, r.CreatedAt) })
	})
}
