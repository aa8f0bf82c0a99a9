package robots

import (
	"fmt"

	"github.com/rohmanhakim/robots-policy/internal/metadata"
	"github.com/rohmanhakim/robots-policy/pkg/failure"
)

type RobotsErrorCause string

const (
	ErrCausePreFetchFailure      RobotsErrorCause = "request could not be built"
	ErrCauseHttpFetchFailure     RobotsErrorCause = "robots.txt fetch failed"
	ErrCauseHttpTooManyRedirects RobotsErrorCause = "redirect loop or too many redirects"
	ErrCauseHttpTooManyRequests  RobotsErrorCause = "rate limited by remote host"
	ErrCauseHttpServerError      RobotsErrorCause = "remote server error"
	ErrCauseHttpUnexpectedStatus RobotsErrorCause = "unexpected http status"
	ErrCauseBodyReadFailure      RobotsErrorCause = "robots.txt body could not be read"
)

type RobotsError struct {
	Message   string
	Retryable bool
	Cause     RobotsErrorCause
}

func (e *RobotsError) Error() string {
	return fmt.Sprintf("robots error: %s: %s", e.Cause, e.Message)
}

func (e *RobotsError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *RobotsError) IsRetryable() bool {
	return e.Retryable
}

// mapRobotsErrorToMetadataCause maps robots-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapRobotsErrorToMetadataCause(err *RobotsError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseHttpFetchFailure, ErrCauseHttpTooManyRedirects, ErrCauseHttpServerError:
		return metadata.CauseNetworkFailure
	case ErrCauseHttpTooManyRequests:
		return metadata.CausePolicyDisallow
	case ErrCauseBodyReadFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
