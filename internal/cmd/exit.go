package cmd

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	// ExitOK means every input was valid.
	ExitOK = 0

	// ExitViolations means violations were found and every input was read.
	ExitViolations = 1

	// ExitFailure covers unreadable or unparseable inputs, schema errors
	// and usage errors.
	ExitFailure = 2
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Silent means the outcome was already reported on stdout.
	Silent bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode maps a command error to a process exit code. Errors that are
// not ExitErrors come from argument parsing and count as usage errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

// IsSilent reports whether err needs no further message on stderr.
func IsSilent(err error) bool {
	var ee *ExitError
	return errors.As(err, &ee) && ee.Silent
}
