package api

import "context"

// Method is the HTTP verb of an endpoint. Only GET and POST are used by the API.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// Valid reports whether m is one of the supported methods
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost:
		return true
	default:
		return false
	}
}

func (m Method) String() string {
	return string(m)
}

// Transport moves bytes over HTTP for the Client.
//
// Send issues method against the absolute url. body is nil for GET requests
// and carries the payload for POST requests. On success Send returns the raw
// response payload; what counts as a failure (connection errors, non-2xx
// statuses, timeouts) is decided by the implementation, and its error is
// handed to the caller of the Client unchanged inside a *TransportError.
//
// Implementations must be safe for concurrent use if the Client that borrows
// them is shared between goroutines. Cancellation is whatever the
// implementation does with ctx.
type Transport interface {
	Send(ctx context.Context, method Method, url string, body []byte) ([]byte, error)
}

// TransportFunc adapts an ordinary function to the Transport interface
type TransportFunc func(ctx context.Context, method Method, url string, body []byte) ([]byte, error)

// Send calls f(ctx, method, url, body)
func (f TransportFunc) Send(ctx context.Context, method Method, url string, body []byte) ([]byte, error) {
	return f(ctx, method, url, body)
}
