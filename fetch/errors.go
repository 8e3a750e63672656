package fetch

import "fmt"

// ErrorKind classifies an APIError
type ErrorKind int

const (
	// Unknown is any failure without a better classification
	Unknown ErrorKind = iota
	// BadURL means the base URL or the composed request URL is invalid
	BadURL
	// RequestFailed means the transport failed or the server answered non-2xx
	RequestFailed
	// MappingError means the body could not be encoded or decoded
	MappingError
)

func (k ErrorKind) String() string {
	switch k {
	case BadURL:
		return "bad url"
	case RequestFailed:
		return "request failed"
	case MappingError:
		return "mapping error"
	default:
		return "unknown"
	}
}

// APIError is returned by every fetch and provider call
type APIError struct {
	Kind       ErrorKind
	StatusCode int // -1 when no response was received
	Reason     string
	Err        error
}

func (e *APIError) Error() string {
	if e.Kind == RequestFailed {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Reason)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return e.Kind.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches another *APIError of the same kind, so callers can write
// errors.Is(err, &fetch.APIError{Kind: fetch.BadURL})
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}
