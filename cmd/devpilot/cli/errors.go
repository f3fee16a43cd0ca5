package cli

// SilentError wraps an error that was already reported to the user.
// main() checks for it to avoid printing the same message twice.
type SilentError struct {
	err error
}

// NewSilentError wraps err so the top-level handler skips printing it.
func NewSilentError(err error) *SilentError {
	return &SilentError{err: err}
}

func (e *SilentError) Error() string {
	return e.err.Error()
}

func (e *SilentError) Unwrap() error {
	return e.err
}
