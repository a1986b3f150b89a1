package client

import (
	"fmt"
	"net/http"
)

const maxErrorBody = 512

// StatusError is returned for any non-2xx response from the Alma API.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func newStatusError(req *http.Request, status int, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: status,
		Body:       string(body),
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s: %s",
		e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}
