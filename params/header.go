package params

import (
	"fmt"
	"net/http"
	"reflect"
)

// HeaderEncodable lets a caller's own type opt into custom header-value
// rendering, taking precedence over the lossless-string fallback.
type HeaderEncodable interface {
	EncodeHeaderParameter() (string, error)
}

// EncodeHeaders renders a map of header name -> value(s) into http.Header.
// Arrays expand to repeated header entries under the same name; nil values
// are silently dropped (spec.md §4.2).
func EncodeHeaders(in map[string]any) (http.Header, error) {
	out := http.Header{}
	for name, v := range in {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				elem := rv.Index(i).Interface()
				if elem == nil {
					continue
				}
				s, err := encodeHeaderScalar(elem)
				if err != nil {
					return nil, fmt.Errorf("params: header %q: %w", name, err)
				}
				out.Add(name, s)
			}
			continue
		}
		s, err := encodeHeaderScalar(v)
		if err != nil {
			return nil, fmt.Errorf("params: header %q: %w", name, err)
		}
		out.Add(name, s)
	}
	return out, nil
}

func encodeHeaderScalar(v any) (string, error) {
	if he, ok := v.(HeaderEncodable); ok {
		return he.EncodeHeaderParameter()
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(t), nil
	default:
		return "", &UnsupportedParameterTypeError{Name: "", Kind: fmt.Sprintf("%T", v)}
	}
}
