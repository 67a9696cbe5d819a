package mediatype

// registration pairs a media type with the codec registered for it. First
// registration wins on a compatibility match (spec.md §4.1).
type registration[C any] struct {
	mediaType MediaType
	codec     C
}

// EncoderRegistry resolves a media type to a registered Encoder.
type EncoderRegistry struct {
	entries []registration[Encoder]
}

// NewEncoderRegistry returns an empty, mutable registry.
func NewEncoderRegistry() *EncoderRegistry {
	return &EncoderRegistry{}
}

// Register adds enc for mt. Earlier registrations take precedence over
// later ones for a given lookup, so register more specific types first.
func (r *EncoderRegistry) Register(mt MediaType, enc Encoder) {
	r.entries = append(r.entries, registration[Encoder]{mediaType: mt, codec: enc})
}

// Find returns the first registered encoder compatible with mt.
func (r *EncoderRegistry) Find(mt MediaType) (Encoder, error) {
	for _, e := range r.entries {
		if e.mediaType.Compatible(mt) {
			return e.codec, nil
		}
	}
	return nil, &ErrUnsupportedContentType{ContentType: mt}
}

// Clone returns a copy whose registrations may be mutated independently of
// the receiver (spec.md §9: "a Defaults constructor that returns a freshly
// built immutable registry; callers may mutate before sealing").
func (r *EncoderRegistry) Clone() *EncoderRegistry {
	out := &EncoderRegistry{entries: append([]registration[Encoder](nil), r.entries...)}
	return out
}

// DecoderRegistry resolves a media type to a registered Decoder.
type DecoderRegistry struct {
	entries []registration[Decoder]
}

// NewDecoderRegistry returns an empty, mutable registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{}
}

// Register adds dec for mt.
func (r *DecoderRegistry) Register(mt MediaType, dec Decoder) {
	r.entries = append(r.entries, registration[Decoder]{mediaType: mt, codec: dec})
}

// Find returns the first registered decoder compatible with mt.
func (r *DecoderRegistry) Find(mt MediaType) (Decoder, error) {
	for _, e := range r.entries {
		if e.mediaType.Compatible(mt) {
			return e.codec, nil
		}
	}
	return nil, &ErrUnsupportedContentType{ContentType: mt}
}

// Supports reports whether any registered decoder is compatible with mt,
// without returning the codec itself (used for Accept-header negotiation).
func (r *DecoderRegistry) Supports(mt MediaType) bool {
	_, err := r.Find(mt)
	return err == nil
}

// Clone returns an independently mutable copy.
func (r *DecoderRegistry) Clone() *DecoderRegistry {
	return &DecoderRegistry{entries: append([]registration[Decoder](nil), r.entries...)}
}
