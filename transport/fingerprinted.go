// Package transport provides pluggable http.RoundTripper implementations
// for use as a Client's underlying transport.
package transport

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	tls "github.com/refraction-networking/utls"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

// FingerprintedTransport is an http.RoundTripper that dials TLS connections
// with utls using a configurable ClientHello fingerprint instead of Go's
// own, for services that reject (or behave differently toward) the
// stock crypto/tls fingerprint. It speaks HTTP/2 only, caching one
// connection per host.
type FingerprintedTransport struct {
	fingerprint tls.ClientHelloID
	dialer      proxy.Dialer

	mu          sync.Mutex
	connections map[string]*http2.ClientConn
	pending     map[string]*sync.Cond
}

// Option configures a FingerprintedTransport at construction time.
type Option func(*FingerprintedTransport)

// WithProxyURL routes outbound connections through the given proxy URL
// (http, socks5, ...).
func WithProxyURL(rawURL string) Option {
	return func(t *FingerprintedTransport) {
		if rawURL == "" {
			return
		}
		u, err := url.Parse(rawURL)
		if err != nil {
			log.Errorf("transport: failed to parse proxy URL %q: %v", rawURL, err)
			return
		}
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			log.Errorf("transport: failed to build proxy dialer for %q: %v", rawURL, err)
			return
		}
		t.dialer = dialer
	}
}

// WithFingerprint overrides the default Firefox ClientHello fingerprint.
func WithFingerprint(id tls.ClientHelloID) Option {
	return func(t *FingerprintedTransport) { t.fingerprint = id }
}

// NewFingerprintedTransport builds a FingerprintedTransport with the
// Firefox fingerprint and a direct dialer, then applies opts.
func NewFingerprintedTransport(opts ...Option) *FingerprintedTransport {
	t := &FingerprintedTransport{
		fingerprint: tls.HelloFirefox_Auto,
		dialer:      proxy.Direct,
		connections: make(map[string]*http2.ClientConn),
		pending:     make(map[string]*sync.Cond),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *FingerprintedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	hostname := req.URL.Hostname()
	addr := req.URL.Host
	if !strings.Contains(addr, ":") {
		addr += ":443"
	}

	conn, err := t.getOrCreateConnection(hostname, addr)
	if err != nil {
		return nil, err
	}

	resp, err := conn.RoundTrip(req)
	if err != nil {
		t.mu.Lock()
		if cached, ok := t.connections[hostname]; ok && cached == conn {
			delete(t.connections, hostname)
		}
		t.mu.Unlock()
		return nil, err
	}
	return resp, nil
}

// getOrCreateConnection returns a cached connection for host, or dials a
// new one; concurrent callers for the same host coordinate via a
// per-host sync.Cond so only one dial is in flight at a time.
func (t *FingerprintedTransport) getOrCreateConnection(host, addr string) (*http2.ClientConn, error) {
	t.mu.Lock()

	if conn, ok := t.connections[host]; ok && conn.CanTakeNewRequest() {
		t.mu.Unlock()
		return conn, nil
	}

	if cond, ok := t.pending[host]; ok {
		cond.Wait()
		if conn, ok := t.connections[host]; ok && conn.CanTakeNewRequest() {
			t.mu.Unlock()
			return conn, nil
		}
	}

	cond := sync.NewCond(&t.mu)
	t.pending[host] = cond
	t.mu.Unlock()

	conn, err := t.dial(host, addr)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, host)
	cond.Broadcast()

	if err != nil {
		return nil, err
	}
	t.connections[host] = conn
	return conn, nil
}

func (t *FingerprintedTransport) dial(host, addr string) (*http2.ClientConn, error) {
	rawConn, err := t.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	tlsConn := tls.UClient(rawConn, &tls.Config{ServerName: host}, t.fingerprint)
	if err := tlsConn.Handshake(); err != nil {
		_ = rawConn.Close()
		return nil, err
	}

	h2 := &http2.Transport{}
	conn, err := h2.NewClientConn(tlsConn)
	if err != nil {
		_ = tlsConn.Close()
		return nil, err
	}
	return conn, nil
}
