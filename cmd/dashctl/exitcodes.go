package main

// Exit codes for dashctl.
const (
	ExitOK           = 0
	ExitInvalidArgs  = 1 // Bad flags or configuration.
	ExitLoadFailure  = 2 // Dataset could not be loaded.
	ExitWriteFailure = 3 // Output could not be written.
)

// exitCodeError carries a process exit code through cobra's error return
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }

func (e *exitCodeError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: code, err: err}
}
