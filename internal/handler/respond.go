package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/fzokart/internal/domain/apperr"
)

// maxBodySize bounds request bodies read by decodeBody.
const maxBodySize = 1 << 20

var (
	errInvalidBody      = apperr.BadRequest("Invalid request body")
	errInternal         = apperr.New(http.StatusInternalServerError, "Something went wrong")
	errMethodNotAllowed = apperr.New(http.StatusMethodNotAllowed, "Method not allowed")
)

// writeJSON writes body with the given status code.
func writeJSON(w http.ResponseWriter, code int, body func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	body(e)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// success writes {"status":"success","data":{<key>: ...}}.
func success(w http.ResponseWriter, code int, key string, value func(e *jx.Encoder)) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("success") })
			e.Field("data", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field(key, value)
				})
			})
		})
	})
}

// noContent answers a successful delete.
func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// fail renders err as an error envelope. Errors that are not *apperr.Error
// are logged and hidden behind a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apperr.From(err)
	if !ok {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		ae = errInternal
	}
	writeJSON(w, ae.Code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str(ae.Status()) })
			e.Field("message", func(e *jx.Encoder) { e.Str(ae.Message) })
		})
	})
}

// decodeBody iterates over the top-level fields of the JSON object in r's
// body. An empty body is treated as an empty object.
func decodeBody(r *http.Request, f func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(data) == 0 {
		return nil
	}
	if err := jx.DecodeBytes(data).Obj(f); err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return errInvalidBody
	}
	return nil
}

// decodeStrings reads a JSON array of strings.
func decodeStrings(d *jx.Decoder) ([]string, error) {
	out := []string{}
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// decodeInt reads an integer given either as a JSON number or a numeric string.
// Form posts from the storefront send numbers as strings.
func decodeInt(d *jx.Decoder) (int, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		n, err := jx.DecodeStr(s).Int()
		if err != nil {
			return 0, errInvalidBody
		}
		return n, nil
	case jx.Null:
		return 0, d.Null()
	default:
		f, err := d.Float64()
		if err != nil {
			return 0, err
		}
		if f != float64(int(f)) {
			return 0, errInvalidBody
		}
		return int(f), nil
	}
}

// decodeOptString reads a string that may be null.
func decodeOptString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeDecimal reads a money amount given as a JSON number or string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errInvalidBody
	}
	return v, nil
}
