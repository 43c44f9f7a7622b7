package ports

import "net/http"

// HTTPClient abstracts the HTTP client so adapters can be tested with
// a stub transport
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
