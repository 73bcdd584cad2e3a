package crystal

// Code is a machine-readable error code.
type Code string

const (
	// CodeInvalidSize rejects a lattice size that cannot be built.
	CodeInvalidSize Code = "INVALID_SIZE"
	// CodeInvalidMargin rejects a termination margin outside (0, 1].
	CodeInvalidMargin Code = "INVALID_MARGIN"
	// CodeDegenerateTopology marks a cell without neighbors.
	CodeDegenerateTopology Code = "DEGENERATE_TOPOLOGY"
	// CodeUnknownParameter marks a lookup or override of a parameter that
	// does not exist.
	CodeUnknownParameter Code = "UNKNOWN_PARAMETER"
	// CodeInvalidParameter rejects a parameter value outside its domain,
	// such as a proportion above one.
	CodeInvalidParameter Code = "INVALID_PARAMETER"
	// CodeMassInvariantViolation marks a negative mass found after a phase.
	CodeMassInvariantViolation Code = "MASS_INVARIANT_VIOLATION"
	// CodeCorruptSnapshot marks persisted state that cannot be restored.
	CodeCorruptSnapshot Code = "CORRUPT_SNAPSHOT"
)

// Fatal reports whether an error with this code must abort a run. Fatal codes
// indicate a defect in the physics rules or the topology; continuing would
// corrupt every later iteration.
func (c Code) Fatal() bool {
	switch c {
	case CodeMassInvariantViolation, CodeDegenerateTopology:
		return true
	}
	return false
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable detail
	Metadata map[string]string // Additional context (coordinates, keys)
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidSize            = &Error{Code: CodeInvalidSize, Message: "invalid size"}
	ErrInvalidMargin          = &Error{Code: CodeInvalidMargin, Message: "invalid margin"}
	ErrDegenerateTopology     = &Error{Code: CodeDegenerateTopology, Message: "degenerate topology"}
	ErrUnknownParameter       = &Error{Code: CodeUnknownParameter, Message: "unknown parameter"}
	ErrInvalidParameter       = &Error{Code: CodeInvalidParameter, Message: "invalid parameter"}
	ErrMassInvariantViolation = &Error{Code: CodeMassInvariantViolation, Message: "mass invariant violation"}
	ErrCorruptSnapshot        = &Error{Code: CodeCorruptSnapshot, Message: "corrupt snapshot"}
)

func newError(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

func wrapError(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
