package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry is a no-op when dsn is empty; CaptureError calls are then dropped
// by the SDK.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports err with the request route attached.
func CaptureError(err error, method, path string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("http.method", method)
		scope.SetTag("http.route", path)
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value and its stack.
func CapturePanic(rec any, stack []byte) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetExtra("panic", rec)
		scope.SetExtra("stack", string(stack))
		sentry.CaptureMessage("panic in request")
	})
}
