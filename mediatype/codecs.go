package mediatype

import (
	"fmt"

	cbor "github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"

	"github.com/outfoxx-sunday/sunday/params"
)

// jsonCodec implements Encoder and Decoder for application/json (and is
// reused, tagged under a different media type, for application/problem+json
// per spec.md §4.1/§4.5).
type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &CodecError{ContentType: JSON, Inner: err}
	}
	return data, nil
}

func (jsonCodec) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &CodecError{ContentType: JSON, Inner: err}
	}
	return nil
}

// cborCodec implements Encoder and Decoder for application/cbor (and
// application/problem+cbor).
type cborCodec struct{}

func (cborCodec) Encode(v any) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, &CodecError{ContentType: CBOR, Inner: err}
	}
	return data, nil
}

func (cborCodec) Decode(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return &CodecError{ContentType: CBOR, Inner: err}
	}
	return nil
}

// textCodec implements Encoder and Decoder for text/* as UTF-8 strings.
type textCodec struct{}

func (textCodec) Encode(v any) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case fmt.Stringer:
		return []byte(t.String()), nil
	default:
		return nil, &CodecError{ContentType: TextPlain, Inner: &ErrTranslationNotSupported{Kind: fmt.Sprintf("%T", v)}}
	}
}

func (textCodec) Decode(data []byte, v any) error {
	switch p := v.(type) {
	case *string:
		*p = string(data)
		return nil
	case *[]byte:
		*p = append((*p)[:0], data...)
		return nil
	default:
		return &CodecError{ContentType: TextPlain, Inner: &ErrTranslationNotSupported{Kind: fmt.Sprintf("%T", v)}}
	}
}

// octetStreamCodec implements Encoder and Decoder for application/octet-stream
// as raw, untranslated bytes.
type octetStreamCodec struct{}

func (octetStreamCodec) Encode(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return nil, &CodecError{ContentType: OctetStream, Inner: &ErrTranslationNotSupported{Kind: fmt.Sprintf("%T", v)}}
	}
}

func (octetStreamCodec) Decode(data []byte, v any) error {
	p, ok := v.(*[]byte)
	if !ok {
		return &CodecError{ContentType: OctetStream, Inner: &ErrTranslationNotSupported{Kind: fmt.Sprintf("%T", v)}}
	}
	*p = append((*p)[:0], data...)
	return nil
}

// formCodec implements Encoder (encode-only, per spec.md §4.1) for
// application/x-www-form-urlencoded, delegating the actual flattening
// logic to package params so the query-parameter encoder and the body
// codec share one implementation.
type formCodec struct{}

func (formCodec) Encode(v any) ([]byte, error) {
	encoded, err := params.EncodeForm(v, params.DefaultFormOptions())
	if err != nil {
		return nil, &CodecError{ContentType: FormURLEncoded, Inner: err}
	}
	return []byte(encoded), nil
}
