package handler

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/zexario/zexario-backend/internal/domain/order"
)

// maxBodyBytes caps request bodies at 100 KiB.
const maxBodyBytes = 100 << 10

var errBodyTooLarge = errors.New("request body too large")

// BodyError indicates a request body that is structurally unusable: malformed
// JSON, a non-object root, or a field of the wrong type.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string {
	return "invalid request body: " + e.Err.Error()
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

// decodeCheckout reads the checkout request from r. JSON and URL-encoded
// bodies are understood; any other content type yields an empty request.
func decodeCheckout(w http.ResponseWriter, r *http.Request) (order.PlaceOrderRequest, error) {
	fields, err := readFields(w, r)
	if err != nil {
		return order.PlaceOrderRequest{}, err
	}
	return requestFromFields(fields)
}

func readFields(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return map[string]any{}, nil
	}
	if mediaType != "application/json" && mediaType != "application/x-www-form-urlencoded" {
		return map[string]any{}, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, &BodyError{Err: errors.Wrap(err, "read body")}
	}

	if mediaType == "application/json" {
		return decodeJSONFields(body)
	}

	fields, err := parseForm(string(body))
	if errors.Is(err, errBodyTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, &BodyError{Err: err}
	}
	return fields, nil
}

// decodeJSONFields decodes a JSON object body. An empty body is an empty
// object.
func decodeJSONFields(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return nil, &BodyError{Err: errors.New("body must be a JSON object")}
	}

	v, err := decodeValue(d)
	if err != nil {
		return nil, &BodyError{Err: err}
	}
	if d.Next() != jx.Invalid {
		return nil, &BodyError{Err: errors.New("unexpected data after JSON object")}
	}

	return v.(map[string]any), nil
}

// decodeValue decodes any JSON value. Integers that fit into int64 stay
// integral; other numbers become float64.
func decodeValue(d *jx.Decoder) (any, error) {
	switch tt := d.Next(); tt {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return nil, err
		}
		if n.IsInt() {
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
		}
		return n.Float64()
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return nil, d.Null()
	case jx.Array:
		items := make([]any, 0)
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := decodeValue(d)
			if err != nil {
				return err
			}
			items = append(items, v)
			return nil
		})
		return items, err
	case jx.Object:
		obj := make(map[string]any)
		err := d.Obj(func(d *jx.Decoder, key string) error {
			v, err := decodeValue(d)
			if err != nil {
				return errors.Wrapf(err, "field %q", key)
			}
			obj[key] = v
			return nil
		})
		return obj, err
	default:
		return nil, errors.Errorf("unexpected %s", tt)
	}
}

// requestFromFields maps decoded body fields onto the order request. Text
// fields must be strings; null counts as absent and an empty string is kept. The cart must be an array,
// except that a non-empty string is accepted as a single item.
func requestFromFields(fields map[string]any) (order.PlaceOrderRequest, error) {
	var req order.PlaceOrderRequest

	text := []struct {
		name string
		dst  **string
	}{
		{"name", &req.Name},
		{"email", &req.Email},
		{"phone", &req.Phone},
		{"address", &req.Address},
		{"city", &req.City},
		{"paymentMethod", &req.PaymentMethod},
	}
	for _, f := range text {
		switch v := fields[f.name].(type) {
		case nil:
		case string:
			*f.dst = &v
		default:
			return order.PlaceOrderRequest{}, &BodyError{Err: errors.Errorf("field %q must be a string", f.name)}
		}
	}

	switch v := fields["cart"].(type) {
	case nil:
	case []any:
		req.Cart = v
	case string:
		if v != "" {
			req.Cart = []any{v}
		}
	default:
		return order.PlaceOrderRequest{}, &BodyError{Err: errors.New(`field "cart" must be an array`)}
	}

	return req, nil
}
