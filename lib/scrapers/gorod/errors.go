package gorod

import "errors"

// Every failure coming out of the client wraps exactly one of these, so
// callers can branch on the failure class without string matching.
// Transport-level errors never escape raw; they are rewrapped at the
// session boundary with the original cause preserved.
var (
	ErrAuthentication = errors.New("portal authentication failed")
	ErrParse          = errors.New("failed to fetch or parse portal page")
	ErrSubmission     = errors.New("failed to submit meter readings")
	ErrValidation     = errors.New("submitted readings failed validation")
	ErrClosed         = errors.New("session is closed")
)
