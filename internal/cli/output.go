package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for rutctl commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // The command ran and found a problem, such as counter drift
	ExitCommandError = 2 // The command could not run
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Errors that are not an
// ExitError map to ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Response is the JSON shape of every rutctl result.
type Response struct {
	Status string `json:"status"` // ok or error
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// writeJSON encodes a successful result.
func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Response{Status: "ok", Data: data})
}
