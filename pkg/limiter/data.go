package limiter

import "time"

// hostTiming is the per-host politeness state: when the host was last
// contacted, any crawl-delay its robots.txt declared, and the current
// backoff level after failures.
type hostTiming struct {
	lastFetchAt  time.Time
	crawlDelay   time.Duration
	backoffCount int
	backoffDelay time.Duration
}
