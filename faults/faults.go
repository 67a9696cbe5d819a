// Package faults is the request/response error taxonomy (spec.md §7):
// explicit, typed variants for request-encoding, response-decoding,
// response-validation, and SSE failures, each a small struct implementing
// error in the style of the teacher's auth.Error.
package faults

import (
	"fmt"

	"github.com/outfoxx-sunday/sunday/mediatype"
)

// UnsupportedContentType is returned when a caller-supplied content type
// has no registered encoder (request side) or decoder (response side).
type UnsupportedContentType struct {
	ContentType mediatype.MediaType
}

func (e *UnsupportedContentType) Error() string {
	return fmt.Sprintf("sunday: unsupported content type %q", e.ContentType.String())
}

// NoSupportedContentTypes is returned when none of the request's candidate
// content types has a registered encoder.
type NoSupportedContentTypes struct {
	Candidates []mediatype.MediaType
}

func (e *NoSupportedContentTypes) Error() string {
	return fmt.Sprintf("sunday: no supported content type among %d candidates", len(e.Candidates))
}

// NoSupportedAcceptTypes is returned when none of the request's candidate
// accept types has a registered decoder.
type NoSupportedAcceptTypes struct {
	Candidates []mediatype.MediaType
}

func (e *NoSupportedAcceptTypes) Error() string {
	return fmt.Sprintf("sunday: no supported accept type among %d candidates", len(e.Candidates))
}

// SerializationFailed wraps an encoder failure while building a request
// body.
type SerializationFailed struct {
	ContentType mediatype.MediaType
	Cause       error
}

func (e *SerializationFailed) Error() string {
	return fmt.Sprintf("sunday: serialize as %q: %v", e.ContentType.String(), e.Cause)
}

func (e *SerializationFailed) Unwrap() error { return e.Cause }

// InvalidContentType is returned when a response's Content-Type header
// could not be parsed at all.
type InvalidContentType struct {
	Raw string
}

func (e *InvalidContentType) Error() string {
	return fmt.Sprintf("sunday: invalid content type %q", e.Raw)
}

// NoData is returned when a decode was attempted against an empty
// response body.
type NoData struct{}

func (e *NoData) Error() string { return "sunday: no data to decode" }

// DeserializationFailed wraps a decoder failure while parsing a response
// body.
type DeserializationFailed struct {
	ContentType mediatype.MediaType
	Cause       error
}

func (e *DeserializationFailed) Error() string {
	return fmt.Sprintf("sunday: deserialize %q: %v", e.ContentType.String(), e.Cause)
}

func (e *DeserializationFailed) Unwrap() error { return e.Cause }

// MissingValue is returned when a decode succeeded but produced no value
// where one was required (e.g. a 204 No Content against a non-optional
// result type).
type MissingValue struct{}

func (e *MissingValue) Error() string { return "sunday: missing value" }

// UnacceptableStatusCode is returned when a response's status falls
// outside the session's accepted-status set. ContentType carries the raw
// Content-Type header value so callers can still attempt Problem decoding
// against the body.
type UnacceptableStatusCode struct {
	StatusCode  int
	ContentType string
	Data        []byte
}

func (e *UnacceptableStatusCode) Error() string {
	return fmt.Sprintf("sunday: unacceptable status code %d", e.StatusCode)
}

// ValidationFailed wraps a validator.v10 struct-tag validation failure on a
// successfully decoded response value.
type ValidationFailed struct {
	Cause error
}

func (e *ValidationFailed) Error() string {
	return fmt.Sprintf("sunday: response validation failed: %v", e.Cause)
}

func (e *ValidationFailed) Unwrap() error { return e.Cause }

// InvalidURL is returned when path/query expansion produced an
// unparseable URL.
type InvalidURL struct {
	Components string
}

func (e *InvalidURL) Error() string {
	return fmt.Sprintf("sunday: invalid URL: %s", e.Components)
}

// InvalidHTTPResponse is returned when the transport failed before a
// status code was known (connection reset, TLS failure, ...).
type InvalidHTTPResponse struct {
	Cause error
}

func (e *InvalidHTTPResponse) Error() string {
	return fmt.Sprintf("sunday: invalid HTTP response: %v", e.Cause)
}

func (e *InvalidHTTPResponse) Unwrap() error { return e.Cause }

// UnexpectedEmptyResponse is returned when a caller expected a body but
// the session delivered none.
type UnexpectedEmptyResponse struct{}

func (e *UnexpectedEmptyResponse) Error() string { return "sunday: unexpected empty response" }

// UnexpectedDataResponse is returned when a caller expected no body (e.g.
// a DELETE with Void result) but the session delivered one.
type UnexpectedDataResponse struct{}

func (e *UnexpectedDataResponse) Error() string { return "sunday: unexpected data in response" }

// EventTimeout is surfaced by an EventSource when the inactivity watchdog
// fires.
type EventTimeout struct{}

func (e *EventTimeout) Error() string { return "sunday: sse: event inactivity timeout" }

// InvalidLastEventId is surfaced when a caller supplies a malformed seed
// last-event-id to resume a stream.
type InvalidLastEventId struct {
	Value string
}

func (e *InvalidLastEventId) Error() string {
	return fmt.Sprintf("sunday: sse: invalid last-event-id %q", e.Value)
}

// RequestStreamEmpty is surfaced when an EventSource's request factory
// closure fails or returns no request, signaling the stream should stop
// without reconnecting. Cause is the factory's own error, if any.
type RequestStreamEmpty struct {
	Cause error
}

func (e *RequestStreamEmpty) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sunday: sse: request stream closed: %v", e.Cause)
	}
	return "sunday: sse: request stream closed"
}

func (e *RequestStreamEmpty) Unwrap() error { return e.Cause }
