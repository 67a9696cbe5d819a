package sunday

import (
	"context"
	"net/http"
	"reflect"

	"github.com/outfoxx-sunday/sunday/faults"
	"github.com/outfoxx-sunday/sunday/mediatype"
)

// Response pairs a decoded value with the *http.Response it came from, for
// callers that need status/headers alongside the body.
type Response[T any] struct {
	Value    T
	Response *http.Response
}

// decodeInto finds a decoder compatible with the response's Content-Type
// and unmarshals data into v. An empty body is only an error if the caller
// required a value (required == true); a decode with no body otherwise
// leaves v untouched.
func (c *Client) decodeInto(data []byte, contentType string, v any, required bool) error {
	if len(data) == 0 {
		if required {
			return &faults.NoData{}
		}
		return nil
	}
	mt, err := mediatype.Parse(contentType)
	if err != nil {
		return &faults.InvalidContentType{Raw: contentType}
	}
	dec, err := c.cfg.Decoders.Find(mt)
	if err != nil {
		return &faults.UnsupportedContentType{ContentType: mt}
	}
	if err := dec.Decode(data, v); err != nil {
		return &faults.DeserializationFailed{ContentType: mt, Cause: err}
	}
	if c.cfg.Validate != nil {
		if rv := reflect.Indirect(reflect.ValueOf(v)); rv.Kind() == reflect.Struct {
			if err := c.cfg.Validate.Struct(rv.Interface()); err != nil {
				return &faults.ValidationFailed{Cause: err}
			}
		}
	}
	return nil
}

// Result performs req and decodes its body as T, dispatching a Problem
// error for a non-2xx response (spec.md §4.5, §4.9). A 204/empty body is
// an error: callers expecting "no body" should use Void instead.
func Result[T any](ctx context.Context, c *Client, req *http.Request) (T, error) {
	var zero T
	resp, err := c.Do(req)
	if err != nil {
		return zero, err
	}
	var v T
	if err := c.decodeInto(resp.Data, resp.Response.Header.Get("Content-Type"), &v, true); err != nil {
		return zero, err
	}
	return v, nil
}

// ResultResponse is Result, but also returns the underlying *http.Response.
func ResultResponse[T any](ctx context.Context, c *Client, req *http.Request) (*Response[T], error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	var v T
	if err := c.decodeInto(resp.Data, resp.Response.Header.Get("Content-Type"), &v, true); err != nil {
		return nil, err
	}
	return &Response[T]{Value: v, Response: resp.Response}, nil
}

// Void performs req and discards any response body, for requests (DELETE,
// 204 endpoints, ...) that carry no meaningful result value. It still
// dispatches a Problem error for a non-2xx response.
func Void(ctx context.Context, c *Client, req *http.Request) error {
	_, err := c.Do(req)
	return err
}
