package params

import (
	"fmt"
	"strconv"

	"github.com/yosida95/uritemplate/v3"
)

// PathEncodable lets a caller's own type opt into custom path-parameter
// rendering, taking precedence over the built-in lossless-string fallback
// (spec.md §4.2, conversion precedence (b)).
type PathEncodable interface {
	EncodePathParameter() (string, error)
}

// Converter is a caller-registered path-parameter converter, tried before
// PathEncodable and the lossless-string fallback (precedence (a)).
// ok is false when the converter does not recognize v's runtime type.
type Converter func(v any) (value string, ok bool, err error)

// MissingParameterError reports a {name} placeholder with no supplied value.
type MissingParameterError struct{ Name string }

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("params: missing path parameter %q", e.Name)
}

// UnsupportedParameterTypeError reports a value with no applicable
// converter, PathEncodable implementation, or lossless string form.
type UnsupportedParameterTypeError struct {
	Name string
	Kind string
}

func (e *UnsupportedParameterTypeError) Error() string {
	return fmt.Sprintf("params: unsupported parameter type for %q: %s", e.Name, e.Kind)
}

// PathTemplate expands a format string containing "{var}" placeholders
// (RFC 6570) against a parameter map.
type PathTemplate struct {
	raw  string
	tmpl *uritemplate.Template
}

// NewPathTemplate parses raw as a URI template.
func NewPathTemplate(raw string) (*PathTemplate, error) {
	tmpl, err := uritemplate.New(raw)
	if err != nil {
		return nil, fmt.Errorf("params: invalid path template %q: %w", raw, err)
	}
	return &PathTemplate{raw: raw, tmpl: tmpl}, nil
}

// String returns the original template text.
func (t *PathTemplate) String() string { return t.raw }

// Expand completes the template against params, applying converters (in
// order) before the built-in conversion precedence of spec.md §4.2.
func (t *PathTemplate) Expand(params map[string]any, converters ...Converter) (string, error) {
	values := uritemplate.Values{}
	for _, name := range t.tmpl.Varnames() {
		v, ok := params[name]
		if !ok {
			return "", &MissingParameterError{Name: name}
		}
		s, err := resolvePathValue(name, v, converters)
		if err != nil {
			return "", err
		}
		values.Set(name, uritemplate.String(s))
	}
	return t.tmpl.Expand(values)
}

func resolvePathValue(name string, v any, converters []Converter) (string, error) {
	for _, c := range converters {
		if s, ok, err := c(v); ok {
			if err != nil {
				return "", err
			}
			return s, nil
		}
	}
	if pe, ok := v.(PathEncodable); ok {
		return pe.EncodePathParameter()
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), nil
	case float32, float64:
		return scalarString(t), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", &UnsupportedParameterTypeError{Name: name, Kind: fmt.Sprintf("%T", v)}
	}
}
