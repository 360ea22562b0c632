package search

import "errors"

// Error classifies an upstream failure with a stable code, so callers and
// log pipelines can branch without matching message strings.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable identifier logged as err_code.
func (e *Error) Code() string { return e.code }

var (
	// ErrUnavailable marks network-level failures: the upstream could not be
	// reached, timed out, or answered with a non-2xx status. One transparent
	// retry has already been applied for transient transport errors.
	ErrUnavailable = &Error{code: "upstream_unavailable", msg: "upstream unavailable"}

	// ErrMalformed marks responses that arrived but could not be decoded
	// into result items. Never retried.
	ErrMalformed = &Error{code: "upstream_malformed", msg: "upstream response malformed"}
)

// ErrCode maps an upstream error to a stable code for log fields.
func ErrCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformed):
		return ErrMalformed.Code()
	case errors.Is(err, ErrUnavailable):
		return ErrUnavailable.Code()
	default:
		return "internal"
	}
}
