package problem

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/outfoxx-sunday/sunday/mediatype"
)

// problemDecoder unmarshals raw problem+json/+cbor bytes into a concrete,
// registered Problem subtype, returning it as an error value.
type problemDecoder func(raw []byte, unmarshal func([]byte, any) error) (error, error)

// ProblemRegistry maps a problem "type" URI to the decoder for its
// registered concrete Go type (spec.md §4.3 "registered problem types").
type ProblemRegistry struct {
	decoders map[string]problemDecoder
}

// NewProblemRegistry returns an empty registry.
func NewProblemRegistry() *ProblemRegistry {
	return &ProblemRegistry{decoders: map[string]problemDecoder{}}
}

// RegisterProblem associates typeURI with the concrete problem type T, whose
// pointer type PT must implement error (ordinarily by embedding Problem and
// defining Error(), or by promoting Problem's Error() method). Subsequent
// decodes of a document whose "type" field equals typeURI produce a *T
// instead of the generic *Problem.
func RegisterProblem[T any, PT interface {
	*T
	error
}](reg *ProblemRegistry, typeURI string) {
	reg.decoders[typeURI] = func(raw []byte, unmarshal func([]byte, any) error) (error, error) {
		v := new(T)
		if err := unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("problem: decode %q: %w", typeURI, err)
		}
		return PT(v), nil
	}
}

// Decode implements spec.md §4.5's response-to-error dispatch:
//
//  1. An empty body yields a Generic problem built from status/reasonPhrase.
//  2. A non-empty body whose content type is compatible with
//     application/problem+json or application/problem+cbor, and for which a
//     decoder is available, is first decoded generically to read "type"; if
//     that type was registered, the body is re-decoded into the concrete
//     subtype and that value (as an error) is returned.
//  3. Otherwise the generic decode result is returned as-is.
//  4. A body present but undecodable, or a content type with no available
//     decoder, yields a Generic problem built from status/reasonPhrase, with
//     the decode failure discarded (the body itself is not trustworthy
//     problem+json).
func (reg *ProblemRegistry) Decode(status int, reasonPhrase string, contentType mediatype.MediaType, body []byte, decoders *mediatype.DecoderRegistry) error {
	if len(body) == 0 {
		return Generic(status, reasonPhrase)
	}

	isProblem := contentType.Compatible(mediatype.ProblemJSON) || contentType.Compatible(mediatype.ProblemCBOR)
	if !isProblem {
		return Generic(status, reasonPhrase)
	}

	dec, err := decoders.Find(contentType)
	if err != nil {
		return Generic(status, reasonPhrase)
	}

	unmarshal := func(b []byte, v any) error { return dec.Decode(b, v) }

	generic, err := decodeGenericVia(body, unmarshal)
	if err != nil {
		return Generic(status, reasonPhrase)
	}

	if decode, ok := reg.decoders[generic.Type]; ok {
		if subtype, err := decode(body, unmarshal); err == nil {
			return subtype
		}
		// Registered decoder failed on an otherwise well-formed document;
		// fall back to the generic problem rather than discarding the body.
	}

	return generic
}

// decodeGenericVia mirrors DecodeGeneric but uses the negotiated decoder
// (which may be CBOR, not JSON) to unmarshal the core fields, and goccy's
// JSON facilities only to recover field order/extras when the body is in
// fact JSON. For non-JSON bodies the Parameters bag is left empty: CBOR
// problem extras are not a spec.md requirement.
func decodeGenericVia(raw []byte, unmarshal func([]byte, any) error) (*Problem, error) {
	var p Problem
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.Type == "" {
		p.Type = AboutBlank
	}
	if json.Valid(raw) {
		if withExtras, err := DecodeGeneric(raw); err == nil {
			p.Parameters = withExtras.Parameters
		}
	}
	return &p, nil
}
