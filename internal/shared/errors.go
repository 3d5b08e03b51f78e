package shared

import "errors"

var (
	// ErrNotFound indicates a referenced principal, group, or permission is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference indicates a well-formed id pointing at a nonexistent catalog entry.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrValidation indicates a malformed value rejected at the request boundary.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrForbidden indicates the acting principal lacks the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable indicates a transient storage failure surfaced to the caller.
	ErrUnavailable = errors.New("unavailable")
	// ErrCSRFTokenMissing occurs when the CSRF token is missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage returns a message suitable for display. Sentinel errors are
// caller-input errors and safe to echo; anything else collapses to a generic
// message so internals never leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrForbidden):
		return err.Error()
	default:
		return "something went wrong, please try again"
	}
}
