package sunday

import "github.com/outfoxx-sunday/sunday/mediatype"

// requestBuilder accumulates the effect of a request's RequestOptions
// before BuildRequest turns it into an *http.Request.
type requestBuilder struct {
	cfg *Config

	pathParams   map[string]any
	queryParams  map[string]any
	headerParams map[string]any
	extraHeaders map[string]string

	body         any
	contentTypes []mediatype.MediaType
	acceptTypes  []mediatype.MediaType
}

func newRequestBuilder(cfg *Config) *requestBuilder {
	return &requestBuilder{
		cfg:          cfg,
		pathParams:   map[string]any{},
		queryParams:  map[string]any{},
		headerParams: map[string]any{},
		extraHeaders: map[string]string{},
	}
}

// RequestOption customizes one request built by Client.BuildRequest.
type RequestOption func(*requestBuilder)

// WithPathParams supplies the values substituted into "{name}" path
// template placeholders.
func WithPathParams(values map[string]any) RequestOption {
	return func(r *requestBuilder) {
		for k, v := range values {
			r.pathParams[k] = v
		}
	}
}

// WithQueryParams adds query-string parameters, encoded per the Client's
// configured FormOptions.
func WithQueryParams(values map[string]any) RequestOption {
	return func(r *requestBuilder) {
		for k, v := range values {
			r.queryParams[k] = v
		}
	}
}

// WithHeaderParams adds typed header values, encoded via
// params.EncodeHeaders.
func WithHeaderParams(values map[string]any) RequestOption {
	return func(r *requestBuilder) {
		for k, v := range values {
			r.headerParams[k] = v
		}
	}
}

// WithHeader sets a single literal header value, applied after
// WithHeaderParams and not subject to parameter encoding.
func WithHeader(name, value string) RequestOption {
	return func(r *requestBuilder) { r.extraHeaders[name] = value }
}

// WithBody sets the request body value to be serialized against the
// negotiated content type.
func WithBody(body any) RequestOption {
	return func(r *requestBuilder) { r.body = body }
}

// WithContentTypes overrides the Client's default content-type preference
// order for this request's body.
func WithContentTypes(types ...mediatype.MediaType) RequestOption {
	return func(r *requestBuilder) { r.contentTypes = types }
}

// WithAcceptTypes overrides the Client's default Accept preference order
// for this request's response.
func WithAcceptTypes(types ...mediatype.MediaType) RequestOption {
	return func(r *requestBuilder) { r.acceptTypes = types }
}
