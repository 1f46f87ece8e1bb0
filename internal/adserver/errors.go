package adserver

import "fmt"

// APIError is any transport failure or non-success response from the
// adserver. It is never retried here — callers decide whether the next
// scheduled run retries the whole operation.
type APIError struct {
	StatusCode int // 0 when the request never got a response
	Detail     string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("adserver request failed: %s", e.Detail)
	}
	return fmt.Sprintf("adserver returned %d: %s", e.StatusCode, e.Detail)
}
