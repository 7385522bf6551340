package exitcodes

import (
	"errors"
	"fmt"
	"os"

	"github.com/stader-labs/kyv-cli/internal/chain"
	"github.com/stader-labs/kyv-cli/internal/kyv"
)

// Standard exit codes for kyv
const (
	// Success indicates successful command completion
	Success = 0

	// GeneralError indicates a general/unknown error
	GeneralError = 1

	// InvalidArgs indicates invalid command-line arguments or flags
	InvalidArgs = 2

	// PreconditionFailed indicates a precondition was not met
	// (e.g., no key configured, no snapshot recorded at a timestamp)
	PreconditionFailed = 3

	// NetworkError indicates a query or broadcast failure
	// (e.g., node unreachable, malformed request, timeout)
	NetworkError = 4

	// ValidationError indicates validation failure
	// (e.g., invalid config, bad validator address)
	ValidationError = 6

	// ContractRejected indicates the chain included the transaction but
	// returned a non-zero code
	ContractRejected = 7
)

// Exit terminates the program with the given code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError prints error message to stderr and exits with the given code
func ExitWithError(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}

// CodeForError returns the appropriate exit code for an error.
// An explicit ErrorWithCode anywhere in the chain wins; otherwise chain
// and engine errors are classified by type.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}

	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}
	if _, ok := chain.AsTxError(err); ok {
		return ContractRejected
	}
	switch {
	case errors.Is(err, kyv.ErrInvalidAmount):
		// A malformed amount in a decoded response is a data error, not a
		// transport one.
		return ValidationError
	case chain.IsTransport(err):
		return NetworkError
	case errors.Is(err, chain.ErrZeroFunds):
		return InvalidArgs
	case errors.Is(err, chain.ErrReadOnly), errors.Is(err, kyv.ErrNoSnapshot):
		return PreconditionFailed
	}
	return GeneralError
}
