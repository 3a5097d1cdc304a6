package fetch

import (
	"errors"
	"fmt"
)

// ErrTransport is the sentinel matched by every TransportError.
var ErrTransport = errors.New("transport error")

// TransportError reports a URL that could not be retrieved. For non-success
// responses it carries the status and the start of the response body.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the sentinel and, when present, the underlying cause.
func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport}
}
