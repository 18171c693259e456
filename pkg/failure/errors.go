package failure

type Severity int

// batch control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
	// SeverityIgnorable marks inputs that are skipped without being reported
	// as failures (unsafe or excluded URLs).
	SeverityIgnorable
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityRecoverable:
		return "recoverable"
	case SeverityIgnorable:
		return "ignorable"
	default:
		return "unknown"
	}
}

type ClassifiedError interface {
	error
	Severity() Severity
}
