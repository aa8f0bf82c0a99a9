package metadata

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
)

/*
Metadata Collected
- Fetch timestamps and durations
- HTTP status codes
- Policy body digests
- Verdicts and their reasons

Logging Goals
- Debuggable fetch/decision behavior
- Post-run auditability
- Failure diagnostics

Structured logging is preferred.

Determinism guarantees:
 - Metadata does not affect control flow
 - Jitter is seed-controlled elsewhere
 - Output is stable given identical inputs and timestamps

Metadata is write-only.
No component may read metadata to influence admission decisions.
*/

// MetadataSink is the write-only observability port. Implementations
// must tolerate concurrent writers and must never fail the caller.
type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchURL string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
		bodyDigest string,
	)

	RecordDecision(url string, agent string, allowed bool, reason string)
}

// RunFinalizer closes out a run with its aggregate stats.
type RunFinalizer interface {
	RecordFinalRunStats(
		totalChecks int,
		totalAllowed int,
		totalDisallowed int,
		totalErrors int,
		duration time.Duration,
	)
}

/*
Recorder captures structured events as one JSON object per line.
It must not:
- perform I/O decisions
- affect control flow
- impose a logging backend (any io.Writer will do; the CLI hands it a rotating file writer)
Ordering guarantees:
- Events are serialized in the order writers reach the recorder.
- Consumers MUST NOT assume ordering across goroutines beyond that.
*/
type Recorder struct {
	mu      sync.Mutex
	out     io.Writer
	latency ewma.MovingAverage
}

// NewRecorder creates a Recorder emitting JSONL events to out.
func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{
		out:     out,
		latency: ewma.NewMovingAverage(),
	}
}

// event is the envelope around every record.
type event struct {
	Event      string `json:"event"`
	RecordedAt string `json:"recorded_at"`
	Payload    any    `json:"payload"`
}

func (r *Recorder) append(kind string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line, err := json.Marshal(event{
		Event:      kind,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	})
	if err != nil {
		// Unserializable payloads are a programming error; dropping the
		// event is still better than failing the caller.
		return
	}
	r.out.Write(append(line, '\n'))
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	r.append("error", ErrorRecord{
		PackageName: packageName,
		Action:      action,
		Cause:       cause,
		ErrorString: errorString,
		ObservedAt:  observedAt,
		Attrs:       attrs,
	})
}

func (r *Recorder) RecordFetch(
	fetchURL string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	bodyDigest string,
) {
	r.mu.Lock()
	r.latency.Add(float64(duration.Milliseconds()))
	r.mu.Unlock()

	r.append("fetch", FetchEvent{
		FetchURL:    fetchURL,
		HTTPStatus:  httpStatus,
		DurationMs:  duration.Milliseconds(),
		ContentType: contentType,
		RetryCount:  retryCount,
		BodyDigest:  bodyDigest,
	})
}

func (r *Recorder) RecordDecision(url string, agent string, allowed bool, reason string) {
	r.append("decision", DecisionEvent{
		URL:     url,
		Agent:   agent,
		Allowed: allowed,
		Reason:  reason,
	})
}

// AverageFetchLatencyMs exposes the smoothed latency of the recorded
// fetches; the final stats record does not include it. It is derived state
// about the recorder itself, not crawl metadata, so reading it does not
// break the write-only rule.
func (r *Recorder) AverageFetchLatencyMs() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latency.Value()
}

/*
RecordFinalRunStats records a terminal, derived summary of a completed run.

Contract:
  - MUST be called exactly once per run.
  - MUST be called only after the run terminates.
  - The provided stats MUST be derived from caller state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow.
*/
func (r *Recorder) RecordFinalRunStats(
	totalChecks int,
	totalAllowed int,
	totalDisallowed int,
	totalErrors int,
	duration time.Duration,
) {
	r.append("final_stats", policyStats{
		TotalChecks:     totalChecks,
		TotalAllowed:    totalAllowed,
		TotalDisallowed: totalDisallowed,
		TotalErrors:     totalErrors,
		DurationMs:      duration.Milliseconds(),
	})
}

// NoopSink implements MetadataSink but does nothing. Callers (or tests)
// decide whether to inject Recorder or NoopSink; the purpose is to keep
// metadata orthogonal.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchURL string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	bodyDigest string,
) {
}

func (n *NoopSink) RecordDecision(url string, agent string, allowed bool, reason string) {}
