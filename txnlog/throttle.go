package txnlog

import "golang.org/x/time/rate"

// Throttled wraps a Logger with a per-call-site rate limit, grounded on the
// teacher's own TODO in ingest/processors/processors.go ("throttle the
// frequency of the logs in case the plugin is completely broken"). One
// limiter is shared by all calls on a Throttled value. Nothing in the engine
// constructs a Throttled logger; the package's Loggers are unthrottled.
type Throttled struct {
	log *Logger
	lim *rate.Limiter
}

// NewThrottled allows at most `burst` immediate log calls, refilling at
// `perSecond` calls/sec thereafter.
func NewThrottled(log *Logger, perSecond float64, burst int) *Throttled {
	return &Throttled{log: log, lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *Throttled) Errorf(format string, args ...any) {
	if t.lim.Allow() {
		t.log.Errorf(format, args...)
	}
}

func (t *Throttled) Warnf(format string, args ...any) {
	if t.lim.Allow() {
		t.log.Warnf(format, args...)
	}
}
