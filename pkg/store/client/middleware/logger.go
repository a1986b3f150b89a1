package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Logger logs every outgoing request with the logger carried by the request
// context. Headers are never logged since they hold the API key.
func Logger(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		reqLogger := zerolog.Ctx(req.Context()).With().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Logger()

		start := time.Now()
		resp, err := next.RoundTrip(req)
		if err != nil {
			reqLogger.Warn().
				Err(err).
				Dur("duration", time.Since(start)).
				Msg("request failed")
			return nil, err
		}

		reqLogger.Debug().
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("request completed")
		return resp, nil
	})
}
