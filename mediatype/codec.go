package mediatype

import "fmt"

// Encoder serializes an arbitrary Go value to bytes for a given media type.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// Decoder deserializes bytes into the value pointed to by v.
type Decoder interface {
	Decode(data []byte, v any) error
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(v any) ([]byte, error)

// Encode implements Encoder.
func (f EncoderFunc) Encode(v any) ([]byte, error) { return f(v) }

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte, v any) error

// Decode implements Decoder.
func (f DecoderFunc) Decode(data []byte, v any) error { return f(data, v) }

// CodecError is the typed cause a codec reports when it cannot handle a
// value (spec.md §4.1: "primitive mismatches ... reported as translation
// not supported").
type CodecError struct {
	ContentType MediaType
	Inner       error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("mediatype: %s: %v", e.ContentType, e.Inner)
}

func (e *CodecError) Unwrap() error { return e.Inner }

// ErrTranslationNotSupported is wrapped by CodecError.Inner when a codec is
// asked to handle a primitive shape it cannot represent.
type ErrTranslationNotSupported struct {
	Kind string
}

func (e *ErrTranslationNotSupported) Error() string {
	return fmt.Sprintf("mediatype: translation not supported for %s", e.Kind)
}

// ErrUnsupportedContentType is returned by a registry when no registered
// codec is compatible with the requested media type.
type ErrUnsupportedContentType struct {
	ContentType MediaType
}

func (e *ErrUnsupportedContentType) Error() string {
	return fmt.Sprintf("mediatype: unsupported content type %s", e.ContentType)
}
