package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

// IsBadRequest reports whether the error is a bad request from the caller.
func IsBadRequest(e error) bool {
	var empty *DocumentChangeEmptyError
	var ranged *DocumentChangeRangedError
	var version *DocumentVersionInvalidError
	return stderr.As(e, &empty) || stderr.As(e, &ranged) || stderr.As(e, &version)
}
