package mediatype

// Defaults returns freshly built, independently mutable encoder and decoder
// registries with the framework's standard codecs registered (spec.md §4.1,
// §6): application/json, application/cbor, application/x-www-form-urlencoded
// (encode only), text/*, application/octet-stream, and application/problem+json
// (+cbor), which reuse the json/cbor codecs under a tagged media type.
//
// Callers may register additional codecs on the returned registries before
// using them to build a client; see spec.md §9 "Global singletons ...
// replace with a Defaults constructor that returns a freshly built
// immutable registry; callers may mutate before sealing".
func Defaults() (*EncoderRegistry, *DecoderRegistry) {
	enc := NewEncoderRegistry()
	dec := NewDecoderRegistry()

	json := jsonCodec{}
	cbor := cborCodec{}
	text := textCodec{}
	octet := octetStreamCodec{}
	form := formCodec{}

	enc.Register(JSON, json)
	enc.Register(CBOR, cbor)
	enc.Register(AnyText, text)
	enc.Register(OctetStream, octet)
	enc.Register(FormURLEncoded, form)
	enc.Register(ProblemJSON, json)
	enc.Register(ProblemCBOR, cbor)

	dec.Register(JSON, json)
	dec.Register(CBOR, cbor)
	dec.Register(AnyText, text)
	dec.Register(OctetStream, octet)
	dec.Register(ProblemJSON, json)
	dec.Register(ProblemCBOR, cbor)

	return enc, dec
}
