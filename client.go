package sunday

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/outfoxx-sunday/sunday/adapter"
	"github.com/outfoxx-sunday/sunday/faults"
	"github.com/outfoxx-sunday/sunday/mediatype"
	"github.com/outfoxx-sunday/sunday/params"
	"github.com/outfoxx-sunday/sunday/session"
	"github.com/outfoxx-sunday/sunday/sse"
)

// Client is the Session facade bound to a base URI: it builds requests from
// a path template plus RequestOptions, negotiates content types, validates
// responses, decodes bodies, and dispatches Problem documents.
type Client struct {
	baseURI *url.URL
	cfg     *Config
	session *session.Session
	stream  *http.Client
}

// NewClient builds a Client against baseURI using cfg (DefaultConfig() if
// nil). Two *http.Client share the same adapted transport: one carries
// cfg.Timeout for ordinary request/response calls, the other has no
// per-request timeout so a long-lived EventSource connection isn't cut off
// mid-stream — its own inactivity watchdog (spec.md §4.8) is what detects a
// stalled SSE connection instead.
func NewClient(baseURI string, cfg *Config) (*Client, error) {
	base, err := resolveBaseURI(baseURI)
	if err != nil {
		return nil, &faults.InvalidURL{Components: baseURI}
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	terminal := adapter.NewTerminal(cfg.Transport)
	chain := adapter.NewChain(terminal, cfg.Adapters...)

	httpClient := &http.Client{Transport: chain, Timeout: cfg.Timeout}
	streamClient := &http.Client{Transport: chain}

	sess := session.New(httpClient, session.WithUserAgent(cfg.UserAgent))

	return &Client{baseURI: base, cfg: cfg, session: sess, stream: streamClient}, nil
}

// BuildRequest expands pathTemplate against opts' path parameters relative
// to the Client's base URI, applies query/header parameters, negotiates and
// encodes the body (if any), and returns the finished *http.Request.
func (c *Client) BuildRequest(ctx context.Context, method, pathTemplate string, opts ...RequestOption) (*http.Request, error) {
	r := newRequestBuilder(c.cfg)
	for _, opt := range opts {
		opt(r)
	}

	tmpl, err := params.NewPathTemplate(pathTemplate)
	if err != nil {
		return nil, err
	}
	expanded, err := tmpl.Expand(r.pathParams)
	if err != nil {
		return nil, err
	}

	ref, err := url.Parse(expanded)
	if err != nil {
		return nil, &faults.InvalidURL{Components: expanded}
	}
	full := c.baseURI.ResolveReference(ref)

	if len(r.queryParams) > 0 {
		q, err := params.EncodeQuery(r.queryParams, c.cfg.FormOptions)
		if err != nil {
			return nil, err
		}
		if full.RawQuery != "" {
			full.RawQuery += "&" + q
		} else {
			full.RawQuery = q
		}
	}

	var bodyBytes []byte
	contentType := mediatype.MediaType{}
	hasBody := r.body != nil
	if hasBody {
		candidates := r.contentTypes
		if len(candidates) == 0 {
			candidates = c.cfg.ContentTypes
		}
		contentType, bodyBytes, err = c.encodeBody(r.body, candidates)
		if err != nil {
			return nil, err
		}
	}

	var bodyReader *strings.Reader
	if hasBody {
		bodyReader = strings.NewReader(string(bodyBytes))
	} else {
		bodyReader = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, full.String(), bodyReader)
	if err != nil {
		return nil, &faults.InvalidURL{Components: full.String()}
	}

	if hdrs, err := params.EncodeHeaders(r.headerParams); err != nil {
		return nil, err
	} else {
		for name, values := range hdrs {
			for _, v := range values {
				req.Header.Add(name, v)
			}
		}
	}
	if hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType.String())
	}

	acceptTypes := r.acceptTypes
	if len(acceptTypes) == 0 {
		acceptTypes = c.cfg.AcceptTypes
	}
	if len(acceptTypes) > 0 {
		negotiated, err := c.negotiateAcceptTypes(acceptTypes)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", joinMediaTypes(negotiated))
	}

	for name, value := range r.extraHeaders {
		req.Header.Set(name, value)
	}

	return req, nil
}

// negotiateAcceptTypes intersects candidates with c.cfg.Decoders, in
// candidate preference order, so the request never advertises an Accept
// type this Client has no decoder for (spec.md §4.3 step 2).
func (c *Client) negotiateAcceptTypes(candidates []mediatype.MediaType) ([]mediatype.MediaType, error) {
	usable := make([]mediatype.MediaType, 0, len(candidates))
	for _, mt := range candidates {
		if _, err := c.cfg.Decoders.Find(mt); err == nil {
			usable = append(usable, mt)
		}
	}
	if len(usable) == 0 {
		return nil, &faults.NoSupportedAcceptTypes{Candidates: candidates}
	}
	return usable, nil
}

func (c *Client) encodeBody(body any, candidates []mediatype.MediaType) (mediatype.MediaType, []byte, error) {
	if len(candidates) == 0 {
		return mediatype.MediaType{}, nil, &faults.NoSupportedContentTypes{}
	}
	var lastErr error
	for _, mt := range candidates {
		enc, err := c.cfg.Encoders.Find(mt)
		if err != nil {
			lastErr = err
			continue
		}
		data, err := enc.Encode(body)
		if err != nil {
			return mediatype.MediaType{}, nil, &faults.SerializationFailed{ContentType: mt, Cause: err}
		}
		return mt, data, nil
	}
	if lastErr != nil {
		return mediatype.MediaType{}, nil, &faults.NoSupportedContentTypes{Candidates: candidates}
	}
	return mediatype.MediaType{}, nil, &faults.NoSupportedContentTypes{Candidates: candidates}
}

// Do sends req and returns its validated, decompressed body without
// decoding it. Any status outside the 2xx range yields a Problem error:
// decoded from the body when its Content-Type negotiates as a problem
// document, otherwise a generic Problem built from the status.
func (c *Client) Do(req *http.Request) (*session.Result, error) {
	result, err := c.session.ValidatedData(req)
	if err != nil {
		var unacceptable *faults.UnacceptableStatusCode
		if errors.As(err, &unacceptable) {
			return nil, c.cfg.Problems.Decode(
				unacceptable.StatusCode,
				http.StatusText(unacceptable.StatusCode),
				parseContentTypeOrZero(unacceptable.ContentType),
				unacceptable.Data,
				c.cfg.Decoders,
			)
		}
		return nil, err
	}
	// Validation: status in [200,299] proceeds; anything else always
	// becomes a Problem (spec.md §4.5), even when the body isn't itself a
	// problem document — Decode falls back to a generic Problem in that
	// case rather than leaving the non-2xx status unreported.
	if result.Response.StatusCode >= 300 {
		return result, c.cfg.Problems.Decode(
			result.Response.StatusCode,
			http.StatusText(result.Response.StatusCode),
			parseContentTypeOrZero(result.Response.Header.Get("Content-Type")),
			result.Data,
			c.cfg.Decoders,
		)
	}
	return result, nil
}

func parseContentTypeOrZero(raw string) mediatype.MediaType {
	mt, err := mediatype.Parse(raw)
	if err != nil {
		return mediatype.MediaType{}
	}
	return mt
}

// EventSource builds an sse.EventSource that issues req (cloned per
// reconnection attempt, with lastEventID applied to the Last-Event-ID
// header) against the Client's adapted http.Client.
func (c *Client) EventSource(baseReq *http.Request, listener sse.Listener, opts ...sse.Option) *sse.EventSource {
	factory := func(ctx context.Context, lastEventID string) (*http.Request, error) {
		req := baseReq.Clone(ctx)
		if lastEventID != "" {
			req.Header.Set("Last-Event-ID", lastEventID)
		}
		return req, nil
	}
	allOpts := append([]sse.Option{sse.WithHTTPClient(c.stream)}, opts...)
	return sse.NewEventSource(factory, listener, allOpts...)
}

// DataStream performs req and streams its raw, undecoded body: exactly one
// {Connect} record carrying the *http.Response, followed by zero or more
// {Data} records as bytes arrive. Callers needing SSE semantics should use
// EventSource instead; DataStream is for consumers that want the raw body
// bytes as they arrive (spec.md §4.9). Each Data record holds what one read
// of the body returned, so record boundaries need not match the chunks the
// server wrote.
func (c *Client) DataStream(req *http.Request) (<-chan session.StreamEvent, context.CancelFunc) {
	return c.session.DataEventStream(req)
}

func joinMediaTypes(types []mediatype.MediaType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, " , ")
}

