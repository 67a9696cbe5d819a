package adapter

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

type recordingFactory struct {
	resp *http.Response
}

func (f *recordingFactory) Do(req *http.Request) (*http.Response, error) {
	return f.resp, nil
}

func okResponse() *http.Response {
	return &http.Response{StatusCode: 200, Header: http.Header{}}
}

func TestChainOrdersOutermostFirst(t *testing.T) {
	var order []string
	first := AdapterFunc(func(req *http.Request, next RequestFactory) (*http.Response, error) {
		order = append(order, "first")
		return next.Do(req)
	})
	second := AdapterFunc(func(req *http.Request, next RequestFactory) (*http.Response, error) {
		order = append(order, "second")
		return next.Do(req)
	})
	terminal := &recordingFactory{resp: okResponse()}
	chain := NewChain(terminal, first, second)

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	if _, err := chain.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
}

func TestHostMatchingSkipsOtherHosts(t *testing.T) {
	called := false
	delegate := AdapterFunc(func(req *http.Request, next RequestFactory) (*http.Response, error) {
		called = true
		return next.Do(req)
	})
	h := &HostMatching{Hosts: []string{"api.example.com"}, Delegate: delegate}
	terminal := &recordingFactory{resp: okResponse()}
	chain := NewChain(terminal, h)

	req := httptest.NewRequest("GET", "http://other.example.com/", nil)
	if _, err := chain.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if called {
		t.Fatal("delegate should not run for a non-matching host")
	}
}

func TestHostMatchingRunsForMatchingHost(t *testing.T) {
	called := false
	delegate := AdapterFunc(func(req *http.Request, next RequestFactory) (*http.Response, error) {
		called = true
		return next.Do(req)
	})
	h := &HostMatching{Hosts: []string{"api.example.com"}, Delegate: delegate}
	terminal := &recordingFactory{resp: okResponse()}
	chain := NewChain(terminal, h)

	req := &http.Request{URL: &url.URL{Host: "api.example.com", Path: "/"}}
	if _, err := chain.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !called {
		t.Fatal("delegate should run for a matching host")
	}
}

func TestHostMatchingIsCaseInsensitiveAndMultiValued(t *testing.T) {
	called := false
	delegate := AdapterFunc(func(req *http.Request, next RequestFactory) (*http.Response, error) {
		called = true
		return next.Do(req)
	})
	h := &HostMatching{Hosts: []string{"other.example.com", "API.Example.COM"}, Delegate: delegate}
	terminal := &recordingFactory{resp: okResponse()}
	chain := NewChain(terminal, h)

	req := &http.Request{URL: &url.URL{Host: "api.example.com", Path: "/"}}
	if _, err := chain.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !called {
		t.Fatal("delegate should run for a case-insensitive match against one of Hosts")
	}
}

func TestHeaderTokenAuthorizingSetsBearer(t *testing.T) {
	a := &HeaderTokenAuthorizing{Token: "secret"}
	terminal := &recordingFactory{resp: okResponse()}
	chain := NewChain(terminal, a)

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	if _, err := chain.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer secret" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestHeaderTokenAuthorizingCustomHeader(t *testing.T) {
	a := &HeaderTokenAuthorizing{Token: "secret", Header: "X-Api-Key"}
	terminal := &recordingFactory{resp: okResponse()}
	chain := NewChain(terminal, a)

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	if _, err := chain.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := req.Header.Get("X-Api-Key"); got != "Bearer secret" {
		t.Fatalf("X-Api-Key = %q", got)
	}
}
