// Package sunday is a client-side framework for invoking REST services
// over HTTP: URI template path expansion, typed query/header parameter
// encoding, content negotiation against a pluggable codec registry, an
// adapter chain for request decoration (host scoping, bearer auth,
// refreshing bearer auth), RFC 7807 Problem decoding, and a Server-Sent
// Events client with typed event projection.
package sunday

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/outfoxx-sunday/sunday/adapter"
	"github.com/outfoxx-sunday/sunday/mediatype"
	"github.com/outfoxx-sunday/sunday/params"
	"github.com/outfoxx-sunday/sunday/problem"
)

// DefaultTimeout matches internal/config.DefaultRequestTimeout; duplicated
// here (rather than imported) so this package has no dependency on the
// demo's configuration loader.
const DefaultTimeout = 30 * time.Second

// Config collects everything a Client needs beyond the base URI: the codec
// registries, form-encoding options, the problem registry, the adapter
// chain, and the underlying transport.
type Config struct {
	Encoders    *mediatype.EncoderRegistry
	Decoders    *mediatype.DecoderRegistry
	Problems    *problem.ProblemRegistry
	FormOptions params.FormOptions

	Adapters  []adapter.Adapter
	Transport http.RoundTripper
	Timeout   time.Duration
	UserAgent string

	// ContentTypes and AcceptTypes are the client-wide candidate lists used
	// when a request doesn't specify its own via WithContentTypes/
	// WithAcceptTypes. Order is preference order.
	ContentTypes []mediatype.MediaType
	AcceptTypes  []mediatype.MediaType

	// Validate runs struct-tag validation (`validate:"..."`) against every
	// decoded response value. Nil disables it; DefaultConfig installs a
	// shared validator.New() instance.
	Validate *validator.Validate
}

// DefaultConfig returns a Config with the framework's standard codecs
// (spec.md §4.1, §6), a JSON-first content negotiation preference, a fresh
// empty ProblemRegistry, and DefaultTimeout.
func DefaultConfig() *Config {
	enc, dec := mediatype.Defaults()
	return &Config{
		Encoders:     enc,
		Decoders:     dec,
		Problems:     problem.NewProblemRegistry(),
		FormOptions:  params.DefaultFormOptions(),
		Timeout:      DefaultTimeout,
		ContentTypes: []mediatype.MediaType{mediatype.JSON, mediatype.CBOR},
		AcceptTypes:  []mediatype.MediaType{mediatype.JSON, mediatype.CBOR},
		Validate:     validator.New(),
	}
}

// resolveBaseURI parses and validates the client's base URI up front so
// every request built from it fails fast on a malformed value rather than
// surfacing a confusing net/url error per request.
func resolveBaseURI(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return u, nil
}
