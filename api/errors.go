package api

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBaseURL is returned by NewClient when no base URL is given
	ErrEmptyBaseURL = errors.New("base URL must not be empty")

	// ErrInvalidBaseURL is returned by NewClient for a base URL that is not
	// absolute or that carries a query or fragment
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrNilTransport is returned by NewClient when no transport is given
	ErrNilTransport = errors.New("transport must not be nil")

	// ErrMissingPathParam means a path template placeholder had no value
	ErrMissingPathParam = errors.New("missing path parameter")

	// ErrExtraPathParam means more values were given than the template has placeholders
	ErrExtraPathParam = errors.New("unexpected path parameter")
)

// maxErrorBody bounds the payload excerpt kept in a DecodeError
const maxErrorBody = 128

// PathError reports an endpoint path that could not be completed
// from the arguments of a call. No request is sent when it occurs.
type PathError struct {
	Endpoint string
	Param    string
	Err      error
}

func (e *PathError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: %v %q", e.Endpoint, e.Err, e.Param)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure returned by the Transport.
// Err is the transport's own error, untouched.
type TransportError struct {
	Endpoint string
	Method   Method
	URL      string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Endpoint, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response payload that could not be
// interpreted as the endpoint's response type.
type DecodeError struct {
	Endpoint string
	// Body holds at most the first 128 bytes of the payload
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response %q: %v", e.Endpoint, e.Body, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(endpoint string, body []byte, err error) *DecodeError {
	excerpt := body
	if len(excerpt) > maxErrorBody {
		excerpt = excerpt[:maxErrorBody]
	}
	return &DecodeError{
		Endpoint: endpoint,
		Body:     append([]byte(nil), excerpt...),
		Err:      err,
	}
}
