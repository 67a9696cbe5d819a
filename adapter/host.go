package adapter

import (
	"net/http"
	"strings"
)

// HostMatching delegates to Delegate only when the request's URL host
// case-insensitively, exactly matches one of Hosts; any other request is
// forwarded to next unmodified. This lets a caller scope an authorizing
// adapter to a set of API hosts without it leaking credentials to requests
// against other hosts (spec.md §4.4).
type HostMatching struct {
	Hosts    []string
	Delegate Adapter
}

func (h *HostMatching) Adapt(req *http.Request, next RequestFactory) (*http.Response, error) {
	if req.URL == nil || !h.matches(req.URL.Host) {
		return next.Do(req)
	}
	return h.Delegate.Adapt(req, next)
}

func (h *HostMatching) matches(host string) bool {
	for _, candidate := range h.Hosts {
		if strings.EqualFold(candidate, host) {
			return true
		}
	}
	return false
}
