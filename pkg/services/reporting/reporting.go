package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

const flushTimeout = 2 * time.Second

// ConfigureLogger returns the process logger, at debug level when verbose
// and info otherwise, together with a line describing the setup.
func ConfigureLogger(w io.Writer, verbose bool) (zerolog.Logger, string) {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	ctx := zerolog.New(w).With().Timestamp()
	if verbose {
		level = zerolog.DebugLevel
		ctx = ctx.Caller()
	}
	logger := ctx.Logger().Level(level)

	return logger, fmt.Sprintf("Logger configured with level=%s", strings.ToUpper(level.String()))
}

// ConfigureSentry initialises Sentry when a DSN is given. A DSN of "none",
// in any case, counts as no DSN.
func ConfigureSentry(dsn, environment string) (bool, string, error) {
	if dsn == "" || strings.EqualFold(dsn, "none") {
		return false, "No Sentry DSN found, exceptions will not be sent to Sentry", nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return false, "", fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, fmt.Sprintf("Sentry DSN found, exceptions will be sent to Sentry with env=%s", environment), nil
}

// CaptureError sends err to Sentry and waits briefly for delivery.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
	sentry.Flush(flushTimeout)
}
