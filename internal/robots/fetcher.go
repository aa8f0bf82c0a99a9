package robots

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohmanhakim/robots-policy/internal/metadata"
	"github.com/rohmanhakim/robots-policy/internal/robots/cache"
	"github.com/rohmanhakim/robots-policy/pkg/hashutil"
	"github.com/rohmanhakim/robots-policy/pkg/robotstxt"
)

/*
Fetcher

Responsibilities:
- Fetch robots.txt per host using net/http
- Parse the body into an immutable policy model
- Handle HTTP status codes: missing files permit, server trouble retries
- Cache raw bodies behind the provided Cache implementation

The Fetcher returns the parsed policy; it never makes admission
decisions itself.
*/

// maxBodySize caps how much of a robots.txt body is read. Bytes past the
// cap are dropped, mirroring how crawlers bound hostile responses.
const maxBodySize = 500 * 1024

// Fetcher fetches and parses robots.txt files from hosts.
type Fetcher struct {
	httpClient   *http.Client
	userAgent    string
	cache        cache.Cache
	metadataSink metadata.MetadataSink
}

// FetchResult is one resolved robots.txt policy with its fetch context.
type FetchResult struct {
	Policy      *robotstxt.ParsedRobots
	Body        string
	FetchedAt   time.Time
	SourceURL   string
	HTTPStatus  int
	ContentType string
	BodyDigest  string
	FromCache   bool
}

// cachedResult is the serializable representation of a FetchResult for
// cache storage. The body is stored raw and re-parsed on hits: parsing
// is cheap and the model stays free of serialization concerns.
type cachedResult struct {
	Body        string    `json:"body"`
	FetchedAt   time.Time `json:"fetched_at"`
	SourceURL   string    `json:"source_url"`
	HTTPStatus  int       `json:"http_status"`
	ContentType string    `json:"content_type"`
	BodyDigest  string    `json:"body_digest"`
}

// NewFetcher creates a Fetcher with a default HTTP client.
// The cache parameter is optional - if nil, no caching will be performed.
func NewFetcher(
	metadataSink metadata.MetadataSink,
	userAgent string,
	cache cache.Cache,
) *Fetcher {
	return NewFetcherWithClient(metadataSink, userAgent, &http.Client{Timeout: 30 * time.Second}, cache)
}

// NewFetcherWithClient creates a Fetcher with a custom HTTP client.
// This is useful for testing.
func NewFetcherWithClient(
	metadataSink metadata.MetadataSink,
	userAgent string,
	httpClient *http.Client,
	cache cache.Cache,
) *Fetcher {
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}
	return &Fetcher{
		httpClient:   httpClient,
		userAgent:    userAgent,
		cache:        cache,
		metadataSink: metadataSink,
	}
}

// cacheKey generates a cache key for the given scheme and hostname.
func cacheKey(scheme, hostname string) string {
	return fmt.Sprintf("%s://%s/robots.txt", scheme, hostname)
}

func serializeResult(result FetchResult) (string, error) {
	data, err := json.Marshal(cachedResult{
		Body:        result.Body,
		FetchedAt:   result.FetchedAt,
		SourceURL:   result.SourceURL,
		HTTPStatus:  result.HTTPStatus,
		ContentType: result.ContentType,
		BodyDigest:  result.BodyDigest,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func deserializeResult(data string) (FetchResult, error) {
	var cached cachedResult
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return FetchResult{}, err
	}
	return FetchResult{
		Policy:      robotstxt.Parse(cached.Body),
		Body:        cached.Body,
		FetchedAt:   cached.FetchedAt,
		SourceURL:   cached.SourceURL,
		HTTPStatus:  cached.HTTPStatus,
		ContentType: cached.ContentType,
		BodyDigest:  cached.BodyDigest,
		FromCache:   true,
	}, nil
}

// Fetch retrieves and parses the robots.txt policy of a host. The
// hostname may carry a port ("example.com:8080"); the scheme must be
// provided to construct the URL. With a cache configured, fresh cached
// policies short-circuit the network round trip.
func (f *Fetcher) Fetch(ctx context.Context, scheme, hostname string) (FetchResult, *RobotsError) {
	key := cacheKey(scheme, hostname)
	if f.cache != nil {
		if cachedData, found := f.cache.Get(key); found {
			if result, err := deserializeResult(cachedData); err == nil {
				return result, nil
			}
			// An undecodable entry falls through to a live fetch.
		}
	}

	start := time.Now()
	robotsURL := key

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return FetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCausePreFetchFailure,
		}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain,text/html,*/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("failed to fetch robots.txt: %v", err),
			Retryable: true,
			Cause:     ErrCauseHttpFetchFailure,
		}
	}
	defer resp.Body.Close()

	var result FetchResult
	var fetchErr *RobotsError

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result, fetchErr = f.parseSuccessfulResponse(resp, robotsURL, start)

	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		// Redirects are followed by http.Client automatically; landing
		// here means a loop or too many hops.
		return FetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("redirect loop or too many redirects for %s", robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpTooManyRedirects,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return FetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("rate limited (429) when fetching %s", robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpTooManyRequests,
		}

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// No robots.txt means no restrictions.
		result = FetchResult{
			Policy:      robotstxt.Parse(""),
			FetchedAt:   start,
			SourceURL:   robotsURL,
			HTTPStatus:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			BodyDigest:  hashutil.Fingerprint(nil),
		}

	case resp.StatusCode >= 500:
		return FetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("server error (%d) when fetching %s", resp.StatusCode, robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpServerError,
		}

	default:
		return FetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("unexpected status code %d for %s", resp.StatusCode, robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpUnexpectedStatus,
		}
	}

	if fetchErr != nil {
		return FetchResult{}, fetchErr
	}

	f.metadataSink.RecordFetch(
		robotsURL,
		result.HTTPStatus,
		time.Since(start),
		result.ContentType,
		0,
		result.BodyDigest,
	)

	if f.cache != nil {
		if cachedData, err := serializeResult(result); err == nil {
			f.cache.Put(key, cachedData)
		}
	}

	return result, nil
}

func (f *Fetcher) parseSuccessfulResponse(resp *http.Response, sourceURL string, start time.Time) (FetchResult, *RobotsError) {
	limitedReader := io.LimitReader(resp.Body, maxBodySize+1)

	content, err := io.ReadAll(limitedReader)
	if err != nil {
		return FetchResult{}, &RobotsError{
			Message:   fmt.Sprintf("failed to read robots.txt body: %v", err),
			Retryable: true,
			Cause:     ErrCauseBodyReadFailure,
		}
	}
	if len(content) > maxBodySize {
		content = content[:maxBodySize]
	}

	body := string(content)
	return FetchResult{
		Policy:      robotstxt.Parse(body),
		Body:        body,
		FetchedAt:   time.Now(),
		SourceURL:   sourceURL,
		HTTPStatus:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		BodyDigest:  hashutil.Fingerprint(content),
	}, nil
}

func (f *Fetcher) UserAgent() string {
	return f.userAgent
}
