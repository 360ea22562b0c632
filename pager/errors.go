package pager

// Error is a session-layer failure with a stable code for err_code fields.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable identifier logged as err_code.
func (e *Error) Code() string { return e.code }

var (
	// ErrNotFound means no session ever existed for the message.
	ErrNotFound = &Error{code: "session_not_found", msg: "pagination session not found"}

	// ErrExpired means the session idled past its TTL and was evicted.
	// Distinct from ErrNotFound so callers can suggest a new search.
	ErrExpired = &Error{code: "session_expired", msg: "pagination session expired"}

	// ErrEmptyQuery rejects blank keywords before any network call.
	ErrEmptyQuery = &Error{code: "empty_query", msg: "empty query"}
)
