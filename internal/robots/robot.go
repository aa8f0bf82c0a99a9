package robots

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rohmanhakim/robots-policy/internal/metadata"
	"github.com/rohmanhakim/robots-policy/pkg/failure"
	"github.com/rohmanhakim/robots-policy/pkg/limiter"
	"github.com/rohmanhakim/robots-policy/pkg/retry"
	"github.com/rohmanhakim/robots-policy/pkg/urlutil"
)

/*
Responsibilities

- Resolve the robots.txt policy per host (through cache and retry)
- Enforce allow/disallow verdicts before a URL is fetched
- Surface crawl-delay values to the rate limiter
- Record every decision for post-run auditing

Robots checks occur before any page request leaves the process.
*/

type Robot struct {
	fetcher      *Fetcher
	limiter      limiter.RateLimiter
	metadataSink metadata.MetadataSink
	userAgent    string
	retryParam   retry.RetryParam
}

func NewRobot(
	fetcher *Fetcher,
	rateLimiter limiter.RateLimiter,
	metadataSink metadata.MetadataSink,
	userAgent string,
	retryParam retry.RetryParam,
) *Robot {
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}
	return &Robot{
		fetcher:      fetcher,
		limiter:      rateLimiter,
		metadataSink: metadataSink,
		userAgent:    userAgent,
		retryParam:   retryParam,
	}
}

// Decide resolves the policy governing u's host and returns the verdict
// for u. Fetch failures are retried per the configured retry parameters;
// a host that stays unreachable yields an error, never a fabricated
// verdict.
func (r *Robot) Decide(ctx context.Context, u url.URL) (Decision, error) {
	canonical := urlutil.Canonicalize(u)
	host := urlutil.NormalizeHost(canonical.Hostname())
	hostport := host
	if port := canonical.Port(); port != "" {
		hostport = host + ":" + port
	}
	scheme := canonical.Scheme
	if scheme == "" {
		scheme = "https"
	}

	result, fetchErr := retry.Retry(r.retryParam, func() (FetchResult, failure.ClassifiedError) {
		res, err := r.fetcher.Fetch(ctx, scheme, hostport)
		if err != nil {
			return FetchResult{}, err
		}
		return res, nil
	})
	if fetchErr != nil {
		if r.limiter != nil {
			r.limiter.Backoff(host)
		}
		r.metadataSink.RecordError(
			time.Now(),
			"robots",
			"Robot.Decide",
			decideErrorCause(fetchErr),
			fetchErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fmt.Sprintf("%v", &u)),
				metadata.NewAttr(metadata.AttrHost, host),
			},
		)
		return Decision{}, fetchErr
	}

	if r.limiter != nil {
		r.limiter.ResetBackoff(host)
		if !result.FromCache {
			r.limiter.MarkLastFetchAsNow(host)
		}
	}

	policy := result.Policy
	crawlDelay := policy.CrawlDelayFor(r.userAgent)
	if crawlDelay != nil && r.limiter != nil {
		r.limiter.SetCrawlDelay(host, *crawlDelay)
	}

	target := canonical.String()
	decision := Decision{
		Url:        u,
		Allowed:    policy.AllowedForAgent(r.userAgent, target),
		CrawlDelay: crawlDelay,
	}
	switch {
	case !policy.HasGroups():
		decision.Reason = EmptyRuleSet
	case !policy.Applies(r.userAgent):
		decision.Reason = UserAgentNotMatched
	case decision.Allowed:
		decision.Reason = AllowedByRobots
	default:
		decision.Reason = DisallowedByRobots
	}

	r.metadataSink.RecordDecision(target, r.userAgent, decision.Allowed, string(decision.Reason))
	return decision, nil
}

// UserAgent returns the identity the robot decides for.
func (r *Robot) UserAgent() string {
	return r.userAgent
}

// decideErrorCause maps a classified fetch error to the canonical
// observability cause table.
func decideErrorCause(err failure.ClassifiedError) metadata.ErrorCause {
	if robotsErr, ok := err.(*RobotsError); ok {
		return mapRobotsErrorToMetadataCause(robotsErr)
	}
	return metadata.CauseNetworkFailure
}
