// Package ledger is the transport boundary between the evidence engine
// and the permissioned ledger hosting the evidence contract.
//
// The engine consumes the contract through the Client interface: Submit
// sends a state-changing call and blocks until a receipt or the caller's
// context expires; Read fetches decoded contract state without a
// transaction. Contract-level outcomes are not call return values — they
// come back as result codes embedded in receipt event logs.
//
// Two implementations of Client are provided:
//   - MemoryClient: in-process contract simulation, for testing and
//     single-node development.
//   - PostgresClient: durable contract state, for shared deployments.
package ledger

import (
	"context"

	"github.com/attestprotocol/attest/pkg/keys"
)

// Contract methods understood by both implementations.
const (
	MethodCreateEvidence = "createEvidence"
	MethodAddSignature   = "addSignature"
	MethodSetHash        = "setHash"
	MethodGetInfo        = "getInfo"
)

// Event kinds emitted by the evidence contract.
const (
	EventCreateEvidence = "CreateEvidenceLog"
	EventAddSignature   = "AddSignatureLog"
	EventAddHash        = "AddHashLog"
)

// Code is an application-level result code embedded in a contract event
// log. The values are fixed by the contract.
type Code int32

const (
	// CodeSuccess means the contract accepted the operation.
	CodeSuccess Code = 0
	// CodeIllegalInput means contract-level input validation rejected the
	// operation. The transaction itself was still recorded.
	CodeIllegalInput Code = 500401
)

// Call is one state-changing contract invocation.
type Call struct {
	// To is the target contract address. Empty for createEvidence, which
	// is dispatched to the evidence factory.
	To     string
	Method string
	// Args hold ledger-native encoded values: codec.Slot, codec.Address,
	// uint8, and slices thereof, in the contract's parameter order.
	Args []any
	// Key signs and funds the transaction; its derived address is the
	// sender observed by the contract.
	Key *keys.PrivateKey
}

// Event is one decoded contract event payload.
type Event struct {
	Kind string
	// Code is the embedded result code.
	Code Code
	// Address is the embedded evidence address; set on create events.
	Address string
}

// Receipt describes a confirmed transaction.
type Receipt struct {
	TransactionHash  string
	BlockNumber      uint64
	TransactionIndex uint32
	Events           []Event
}

// EventsOf returns the receipt's events of the given kind, in log order.
func (r *Receipt) EventsOf(kind string) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Client is the submit-and-await capability the evidence engine consumes.
type Client interface {
	// Submit sends call and blocks until the transaction is confirmed or
	// ctx expires. A confirmed-but-rejected operation is reported through
	// the receipt's event codes, not through err.
	Submit(ctx context.Context, call Call) (*Receipt, error)

	// Read fetches decoded contract state for method at address. A nil
	// result with nil error means the contract returned nothing usable.
	Read(ctx context.Context, address, method string) ([]any, error)
}
