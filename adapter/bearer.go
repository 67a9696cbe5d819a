package adapter

import "net/http"

// HeaderTokenAuthorizing sets a fixed bearer token on every request it
// sees, under Header (defaulting to "Authorization") in the conventional
// "Bearer <token>" form (spec.md §4.4).
type HeaderTokenAuthorizing struct {
	Token  string
	Header string
}

func (a *HeaderTokenAuthorizing) Adapt(req *http.Request, next RequestFactory) (*http.Response, error) {
	req.Header.Set(a.headerName(), "Bearer "+a.Token)
	return next.Do(req)
}

func (a *HeaderTokenAuthorizing) headerName() string {
	if a.Header == "" {
		return "Authorization"
	}
	return a.Header
}
