// Package session implements the Session facade (spec.md §4.9): a thin
// wrapper over *http.Client that adds response-status validation, a
// chunk-delivered byte stream for SSE consumption, transparent
// content-encoding decompression, and per-request logging with a
// generated request ID.
package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/outfoxx-sunday/sunday/faults"
	"github.com/outfoxx-sunday/sunday/internal/logging"
)

// AcceptedStatusCodes is the default set of HTTP status codes a Session
// treats as successful at the transport layer, preserved verbatim from the
// upstream behavior spec.md §4.9 documents as deliberate: several 4xx
// codes are accepted here so the request factory can layer Problem
// decoding on top instead of the session failing first.
var AcceptedStatusCodes = map[int]bool{
	200: true, 201: true, 204: true, 205: true, 206: true,
	400: true, 409: true, 410: true, 412: true, 413: true,
}

// RequestFactory is the minimal capability Session needs to issue a
// request: satisfied by *http.Client directly, or by an adapter.Chain
// terminating in one, so the adapter pipeline (spec.md §4.4) composes
// transparently in front of a Session.
type RequestFactory interface {
	Do(req *http.Request) (*http.Response, error)
}

// Session wraps a RequestFactory with status validation and streaming.
type Session struct {
	client    RequestFactory
	accepted  map[int]bool
	userAgent string

	mu        sync.Mutex
	outstanding map[*http.Request]context.CancelFunc
	closed    bool
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithAcceptedStatusCodes overrides AcceptedStatusCodes.
func WithAcceptedStatusCodes(codes map[int]bool) Option {
	return func(s *Session) { s.accepted = codes }
}

// WithUserAgent sets a User-Agent header applied to every request that
// doesn't already set one.
func WithUserAgent(ua string) Option {
	return func(s *Session) { s.userAgent = ua }
}

// New builds a Session around client (http.DefaultClient if nil).
func New(client RequestFactory, opts ...Option) *Session {
	if client == nil {
		client = http.DefaultClient
	}
	s := &Session{
		client:      client,
		accepted:    AcceptedStatusCodes,
		outstanding: map[*http.Request]context.CancelFunc{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the outcome of ValidatedData: the fully read, decompressed
// response body plus the *http.Response it came from (status, headers).
type Result struct {
	Data     []byte
	Response *http.Response
}

// ValidatedData performs req and returns its decompressed body once the
// status has been checked against the accepted set, tagging the request
// with a generated request ID for structured logging (spec.md §4.9).
func (s *Session) ValidatedData(req *http.Request) (*Result, error) {
	requestID := uuid.NewString()
	entry := logging.WithRequestID(requestID)
	entry.Debugf("%s %s", req.Method, req.URL)

	resp, cancel, err := s.do(req)
	if err != nil {
		entry.WithError(err).Debug("request failed")
		return nil, &faults.InvalidHTTPResponse{Cause: err}
	}
	defer cancel()
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		entry.WithError(err).Debug("reading response body failed")
		return nil, &faults.InvalidHTTPResponse{Cause: err}
	}

	body, err = decompress(resp.Header.Get("Content-Encoding"), body)
	if err != nil {
		entry.WithError(err).Debug("decompressing response body failed")
		return nil, &faults.InvalidHTTPResponse{Cause: err}
	}

	entry.WithField("status", resp.StatusCode).Debug("response received")

	if !s.accept(resp.StatusCode) {
		return nil, &faults.UnacceptableStatusCode{
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Data:        body,
		}
	}

	return &Result{Data: body, Response: resp}, nil
}

func (s *Session) accept(status int) bool {
	if s.accepted == nil {
		return AcceptedStatusCodes[status]
	}
	return s.accepted[status]
}

// StreamEvent is one record of a dataEventStream sequence: either the
// initial Connect (carrying the response so the caller can inspect status
// and headers before any bytes are delivered) or a Data chunk. Exactly one
// Connect precedes zero or more Data records.
type StreamEvent struct {
	Connect *http.Response
	Data    []byte
	Err     error
}

// DataEventStream performs req and streams its raw body as it arrives,
// sending exactly one {Connect} record followed by zero or more {Data}
// records on the returned channel, which is closed when the body is fully
// read, req fails, or the returned cancel func is called (spec.md §4.9).
// No decompression or status validation is applied here: callers that
// need validation should inspect the Connect record's Response themselves
// (a 4xx/5xx may still carry a readable SSE/problem body).
func (s *Session) DataEventStream(req *http.Request) (<-chan StreamEvent, context.CancelFunc) {
	out := make(chan StreamEvent, 1)

	resp, cancel, err := s.do(req)
	if err != nil {
		go func() {
			out <- StreamEvent{Err: &faults.InvalidHTTPResponse{Cause: err}}
			close(out)
		}()
		return out, func() {}
	}

	out <- StreamEvent{Connect: resp}

	go func() {
		defer close(out)
		defer cancel()
		defer func() { _ = resp.Body.Close() }()

		buf := make([]byte, 32*1024)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				out <- StreamEvent{Data: chunk}
			}
			if err != nil {
				if err != io.EOF {
					out <- StreamEvent{Err: err}
				}
				return
			}
		}
	}()

	return out, cancel
}

// do issues req with a per-request cancelable context, registering it as
// outstanding so Close(cancelOutstanding) can abort it.
func (s *Session) do(req *http.Request) (*http.Response, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	if s.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, nil, fmt.Errorf("sunday: session closed")
	}
	s.outstanding[req] = cancel
	s.mu.Unlock()

	wrapped := cancel
	cancel = func() {
		s.mu.Lock()
		delete(s.outstanding, req)
		s.mu.Unlock()
		wrapped()
	}

	resp, err := s.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	return resp, cancel, nil
}

// Close shuts the session down. When cancelOutstanding is true, every
// in-flight request's context is canceled, aborting its stream; otherwise
// outstanding requests are left to finish naturally and only new requests
// are rejected.
func (s *Session) Close(cancelOutstanding bool) {
	s.mu.Lock()
	s.closed = true
	var cancels []context.CancelFunc
	if cancelOutstanding {
		for _, cancel := range s.outstanding {
			cancels = append(cancels, cancel)
		}
		s.outstanding = map[*http.Request]context.CancelFunc{}
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// decompress reverses the transfer per Content-Encoding; an unrecognized
// or absent encoding returns body unchanged.
func decompress(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "":
		return body, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("session: gzip: %w", err)
		}
		defer func() { _ = r.Close() }()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("session: gzip: %w", err)
		}
		return out, nil
	case "br":
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("session: brotli: %w", err)
		}
		return out, nil
	default:
		return body, nil
	}
}
