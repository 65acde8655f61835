package schedule

import "errors"

// Error kinds. Match them with errors.Is.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrNoData            = errors.New("no schedule data")
	ErrValidation        = errors.New("validation error")
	ErrInvalidRange      = errors.New("invalid range")
	ErrSourceUnavailable = errors.New("schedule source unavailable")
)

// Error is returned by every model operation that fails. Kind is one of the
// Err* sentinels above; Field names the offending input when there is one.
type Error struct {
	Kind   error
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports kind membership. An invalid range is also a validation failure.
func (e *Error) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrInvalidRange && target == ErrValidation
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(field, reason string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Reason: reason}
}

func configurationError(reason string) *Error {
	return &Error{Kind: ErrConfiguration, Field: "source_url", Reason: reason}
}

var errNotFetched = &Error{Kind: ErrNoData, Reason: "schedule data has not been fetched"}

var errStartAfterEnd = &Error{Kind: ErrInvalidRange, Field: "time_end", Reason: "start time must be before end time"}
