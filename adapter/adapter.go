// Package adapter implements the pluggable request-adapter chain used to
// decorate outgoing requests before they are sent: host-scoped delegation,
// static bearer-token authorization, and refreshing bearer-token
// authorization with single-flighted refresh (spec.md §4.4).
package adapter

import "net/http"

// RequestFactory is the minimal capability an Adapter needs from whatever
// sends the request next in the chain. It is defined narrowly here rather
// than importing the root sunday package, so adapter never depends on it.
type RequestFactory interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter decorates an outgoing request before passing it to next, and may
// inspect or transform the resulting response.
type Adapter interface {
	Adapt(req *http.Request, next RequestFactory) (*http.Response, error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(req *http.Request, next RequestFactory) (*http.Response, error)

func (f AdapterFunc) Adapt(req *http.Request, next RequestFactory) (*http.Response, error) {
	return f(req, next)
}

// Chain composes a sequence of adapters in front of a terminal
// RequestFactory (ordinarily the client's underlying http.Client). The
// first adapter in the list runs outermost: it sees the request first and
// the response last.
type Chain struct {
	adapters []Adapter
	terminal RequestFactory
}

// NewChain builds a Chain that runs adapters in order before finally
// invoking terminal.
func NewChain(terminal RequestFactory, adapters ...Adapter) *Chain {
	return &Chain{adapters: adapters, terminal: terminal}
}

// Do runs req through the full adapter chain.
func (c *Chain) Do(req *http.Request) (*http.Response, error) {
	return c.run(0, req)
}

// RoundTrip implements http.RoundTripper so a Chain can be used directly as
// an *http.Client's Transport, letting Session and sse.EventSource share
// one adapted http.Client instead of each needing their own RequestFactory
// wiring.
func (c *Chain) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.Do(req)
}

// roundTripperFactory adapts an http.RoundTripper (e.g. the transport
// package's FingerprintedTransport, or http.DefaultTransport) to the
// RequestFactory interface a Chain needs as its terminal step.
type roundTripperFactory struct {
	rt http.RoundTripper
}

// NewTerminal wraps rt as the RequestFactory a Chain invokes once every
// adapter has run.
func NewTerminal(rt http.RoundTripper) RequestFactory {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &roundTripperFactory{rt: rt}
}

func (f *roundTripperFactory) Do(req *http.Request) (*http.Response, error) {
	return f.rt.RoundTrip(req)
}

func (c *Chain) run(i int, req *http.Request) (*http.Response, error) {
	if i >= len(c.adapters) {
		return c.terminal.Do(req)
	}
	return c.adapters[i].Adapt(req, &stepFactory{chain: c, index: i + 1})
}

// stepFactory is the "next" passed to adapter i; calling Do on it resumes
// the chain at adapter i+1.
type stepFactory struct {
	chain *Chain
	index int
}

func (s *stepFactory) Do(req *http.Request) (*http.Response, error) {
	return s.chain.run(s.index, req)
}
