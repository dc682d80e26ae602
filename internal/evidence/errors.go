package evidence

import (
	"context"
	"errors"
	"fmt"

	"github.com/attestprotocol/attest/internal/ledger"
)

// The engine's error taxonomy. Every operation surfaces exactly one of
// these (or nil), wrapped with call context. Callers test with errors.Is.
var (
	// ErrTimeout — no confirmation or read result within the bound. For
	// writes the on-ledger effect is unknown: the transaction may still
	// land, so treat the record as "check by address", not rolled back.
	ErrTimeout = errors.New("ledger operation timed out")

	// ErrExecution — the submission path failed locally (interruption,
	// transport fault, invalid input) before a receipt was obtained.
	ErrExecution = errors.New("ledger operation failed to execute")

	// ErrContractRejected — the ledger recorded the transaction but
	// contract-level validation embedded a failure code in the event.
	ErrContractRejected = errors.New("contract rejected operation")

	// ErrEvidence — the receipt or read result arrived but the expected
	// event or field set could not be decoded.
	ErrEvidence = errors.New("evidence data undecodable")
)

// ErrNotFound — the ledger holds no state at the requested address. It
// matches ErrEvidence under errors.Is, but callers can tell the missing
// record apart from a record that exists and fails to decode.
var ErrNotFound = fmt.Errorf("%w: no evidence at address", ErrEvidence)

// RejectionError carries the raw embedded result code of a
// contract-level rejection. It matches ErrContractRejected under
// errors.Is.
type RejectionError struct {
	Code ledger.Code
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("contract rejected operation (code %d)", e.Code)
}

func (e *RejectionError) Unwrap() error { return ErrContractRejected }

// IsIllegalInput reports whether err is a contract rejection with the
// illegal-input code.
func IsIllegalInput(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej) && rej.Code == ledger.CodeIllegalInput
}

// interpret decodes an embedded event code into the taxonomy. Codes are
// decoded here, once, and never surface as raw integers past this point.
func interpret(code ledger.Code) error {
	if code == ledger.CodeSuccess {
		return nil
	}
	return &RejectionError{Code: code}
}

// classify maps a submit/read transport failure into the taxonomy. A
// deadline expiry is a timeout; everything else, including caller
// cancellation, is an execution failure.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrExecution, err)
}
