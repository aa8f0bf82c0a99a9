package failure

type Severity int

// caller control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is the error contract shared across robots-policy
// packages: every typed error reports a severity so callers can decide
// between aborting and retrying without knowing package internals.
type ClassifiedError interface {
	error
	Severity() Severity
}
