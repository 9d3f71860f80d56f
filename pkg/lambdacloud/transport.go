package lambdacloud

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// newRetryableTransport builds the default transport. With retryMax 0 every
// request is attempted once; non-2xx responses are always handed back to the
// dispatcher instead of being turned into transport errors.
// Only GET and PUT are ever retried: repeating a POST may launch or create
// resources twice, and repeating a DELETE turns success into not-found.
func newRetryableTransport(retryMax int, logger *zap.Logger) HTTPDoer {
	once := newRetryableClient(0, logger)
	if retryMax <= 0 {
		return once
	}
	return methodRouter{
		retrying: newRetryableClient(retryMax, logger),
		once:     once,
	}
}

func newRetryableClient(retryMax int, logger *zap.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = zapLeveledLogger{logger.Sugar()}
	return rc.StandardClient()
}

// methodRouter sends idempotent requests through the retrying client and everything else through the single-attempt one
type methodRouter struct {
	retrying HTTPDoer
	once     HTTPDoer
}

func (r methodRouter) Do(req *http.Request) (*http.Response, error) {
	if retriable(req.Method) {
		return r.retrying.Do(req)
	}
	return r.once.Do(req)
}

func retriable(method string) bool {
	return method == http.MethodGet || method == http.MethodPut
}

// zapLeveledLogger adapts zap to retryablehttp.LeveledLogger
type zapLeveledLogger struct {
	s *zap.SugaredLogger
}

func (l zapLeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l zapLeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapLeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapLeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

var _ retryablehttp.LeveledLogger = zapLeveledLogger{}
