package sse

import "fmt"

// Decoder turns a dispatched event's raw Data into a typed value T.
// JSONDecoder adapts a mediatype codec's Decode method for this purpose;
// callers may also supply their own.
type Decoder[T any] func(event Event) (T, error)

// TypedEvent pairs a decoded payload with the event metadata it came from.
type TypedEvent[T any] struct {
	Type        string
	LastEventID string
	Payload     T
}

// TypedStream projects an EventSource's raw Event listener callbacks into
// typed values, keyed by event type (spec.md §4.8): an event whose "event:"
// field (or the default "message" type) has no registered decoder is
// dropped silently, matching the heterogeneous-event-type streams a single
// connection can carry. A registered type whose decoder fails is reported
// through OnDecodeError instead.
type TypedStream[T any] struct {
	decoders      map[string]Decoder[T]
	OnTypedEvent  func(TypedEvent[T])
	OnDecodeError func(Event, error)
}

// NewTypedStream builds a TypedStream that decodes events whose Type is a
// key of decoders; every other event type is dropped.
func NewTypedStream[T any](decoders map[string]Decoder[T]) *TypedStream[T] {
	return &TypedStream[T]{decoders: decoders}
}

// RegisterDecoder adds or replaces the decoder used for events of the
// given type.
func (s *TypedStream[T]) RegisterDecoder(eventType string, decode Decoder[T]) {
	if s.decoders == nil {
		s.decoders = map[string]Decoder[T]{}
	}
	s.decoders[eventType] = decode
}

// Listener returns the sse.Listener to register on an EventSource; events
// whose type has a registered decoder are decoded and handed to
// OnTypedEvent (or OnDecodeError on failure), and every other event type
// is dropped without invoking base.OnEvent for it.
func (s *TypedStream[T]) Listener(base Listener) Listener {
	onEvent := base.OnEvent
	return Listener{
		OnOpen:  base.OnOpen,
		OnError: base.OnError,
		OnEvent: func(ev Event) {
			decode, ok := s.decoders[ev.Type]
			if !ok {
				return
			}
			if onEvent != nil {
				onEvent(ev)
			}
			payload, err := decode(ev)
			if err != nil {
				if s.OnDecodeError != nil {
					s.OnDecodeError(ev, err)
				}
				return
			}
			if s.OnTypedEvent != nil {
				s.OnTypedEvent(TypedEvent[T]{Type: ev.Type, LastEventID: ev.LastEventID, Payload: payload})
			}
		},
	}
}

// Unmarshaler is satisfied by any decode function matching
// encoding/json.Unmarshal's or a mediatype.Decoder's Decode signature.
type Unmarshaler func(data []byte, v any) error

// JSONDecoder builds a Decoder[T] that unmarshals an event's Data as JSON
// using unmarshal (ordinarily a mediatype.Decoder's Decode method, so the
// same codec registry used for regular responses also drives SSE payload
// decoding).
func JSONDecoder[T any](unmarshal Unmarshaler) Decoder[T] {
	return func(event Event) (T, error) {
		var v T
		if err := unmarshal([]byte(event.Data), &v); err != nil {
			return v, fmt.Errorf("sse: decode event %q: %w", event.Type, err)
		}
		return v, nil
	}
}
