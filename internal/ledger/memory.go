package ledger

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/attestprotocol/attest/pkg/codec"
)

// evidenceState mirrors the contract's storage layout: the signer list is
// fixed at creation and the r/s/v lists stay parallel to it. A slot whose
// v is 0 holds no signature yet.
type evidenceState struct {
	hashSlots  []codec.Slot
	extraSlots []codec.Slot
	signers    []codec.Address
	rSlots     []codec.Slot
	sSlots     []codec.Slot
	vSlots     []uint8
}

// MemoryClient is an in-process, thread-safe simulation of the evidence
// contract. It reproduces the contract's validation rules and event
// result codes, so engine behavior against it matches a live ledger.
type MemoryClient struct {
	mu       sync.RWMutex
	records  map[string]*evidenceState
	blockNum uint64
}

// NewMemoryClient creates an empty in-memory ledger.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{records: make(map[string]*evidenceState)}
}

// Submit implements Client.
func (m *MemoryClient) Submit(ctx context.Context, call Call) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if call.Key == nil {
		return nil, fmt.Errorf("submit %s: no signing key", call.Method)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blockNum++
	receipt := &Receipt{
		TransactionHash: newTxHash(),
		BlockNumber:     m.blockNum,
	}
	sender := call.Key.Address()

	switch call.Method {
	case MethodCreateEvidence:
		receipt.Events = append(receipt.Events, m.createEvidence(sender, call.Args))
	case MethodAddSignature:
		receipt.Events = append(receipt.Events, m.addSignature(sender, call.To, call.Args))
	case MethodSetHash:
		receipt.Events = append(receipt.Events, m.setHash(sender, call.To, call.Args))
	default:
		return nil, fmt.Errorf("unknown contract method %q", call.Method)
	}
	return receipt, nil
}

// createEvidence allocates a new record. The creating transaction's
// signature components occupy the sender's signer slot when the sender is
// a declared signer.
func (m *MemoryClient) createEvidence(sender codec.Address, args []any) Event {
	ev := Event{Kind: EventCreateEvidence, Code: CodeSuccess}

	if len(args) != 6 {
		ev.Code = CodeIllegalInput
		return ev
	}
	hashSlots, ok1 := args[0].([]codec.Slot)
	signers, ok2 := args[1].([]codec.Address)
	r, ok3 := args[2].(codec.Slot)
	s, ok4 := args[3].(codec.Slot)
	v, ok5 := args[4].(uint8)
	extraSlots, ok6 := args[5].([]codec.Slot)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) || len(hashSlots) == 0 || len(signers) == 0 {
		ev.Code = CodeIllegalInput
		return ev
	}

	state := &evidenceState{
		hashSlots:  append([]codec.Slot(nil), hashSlots...),
		extraSlots: append([]codec.Slot(nil), extraSlots...),
		signers:    append([]codec.Address(nil), signers...),
		rSlots:     make([]codec.Slot, len(signers)),
		sSlots:     make([]codec.Slot, len(signers)),
		vSlots:     make([]uint8, len(signers)),
	}
	for i, signer := range state.signers {
		if signer == sender && v != 0 {
			state.rSlots[i] = r
			state.sSlots[i] = s
			state.vSlots[i] = v
			break
		}
	}

	addr := deriveAddress(sender, m.blockNum)
	m.records[addr] = state
	ev.Address = addr
	return ev
}

// addSignature fills the sender's signer slot on an existing record.
func (m *MemoryClient) addSignature(sender codec.Address, to string, args []any) Event {
	ev := Event{Kind: EventAddSignature}

	state, ok := m.records[to]
	if !ok || len(args) != 3 {
		ev.Code = CodeIllegalInput
		return ev
	}
	r, ok1 := args[0].(codec.Slot)
	s, ok2 := args[1].(codec.Slot)
	v, ok3 := args[2].(uint8)
	if !(ok1 && ok2 && ok3) || v == 0 {
		ev.Code = CodeIllegalInput
		return ev
	}

	for i, signer := range state.signers {
		if signer == sender {
			state.rSlots[i] = r
			state.sSlots[i] = s
			state.vSlots[i] = v
			ev.Code = CodeSuccess
			return ev
		}
	}
	// Sender is not a declared signer.
	ev.Code = CodeIllegalInput
	return ev
}

// setHash replaces the record's hash slots. Only declared signers may
// amend the hash.
func (m *MemoryClient) setHash(sender codec.Address, to string, args []any) Event {
	ev := Event{Kind: EventAddHash}

	state, ok := m.records[to]
	if !ok || len(args) != 1 {
		ev.Code = CodeIllegalInput
		return ev
	}
	hashSlots, okArg := args[0].([]codec.Slot)
	if !okArg || len(hashSlots) == 0 {
		ev.Code = CodeIllegalInput
		return ev
	}

	for _, signer := range state.signers {
		if signer == sender {
			state.hashSlots = append([]codec.Slot(nil), hashSlots...)
			ev.Code = CodeSuccess
			return ev
		}
	}
	ev.Code = CodeIllegalInput
	return ev
}

// Read implements Client. getInfo returns the contract's five parallel
// lists: hash slots, signer addresses, r slots, s slots, v values.
func (m *MemoryClient) Read(ctx context.Context, address, method string) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if method != MethodGetInfo {
		return nil, fmt.Errorf("unknown read method %q", method)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.records[address]
	if !ok {
		return nil, nil
	}
	return []any{
		append([]codec.Slot(nil), state.hashSlots...),
		append([]codec.Address(nil), state.signers...),
		append([]codec.Slot(nil), state.rSlots...),
		append([]codec.Slot(nil), state.sSlots...),
		append([]uint8(nil), state.vSlots...),
	}, nil
}

// newTxHash fabricates a transaction hash from a fresh UUID.
func newTxHash() string {
	id := uuid.New()
	h := sha3.NewLegacyKeccak256()
	h.Write(id[:])
	return codec.HexPrefix + hex.EncodeToString(h.Sum(nil))
}

// deriveAddress allocates a deterministic-per-block contract address for
// a newly created record.
func deriveAddress(creator codec.Address, block uint64) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(creator[:])
	var blockBuf [8]byte
	for i := 7; i >= 0; i-- {
		blockBuf[i] = byte(block)
		block >>= 8
	}
	h.Write(blockBuf[:])
	digest := h.Sum(nil)

	var addr codec.Address
	copy(addr[:], digest[len(digest)-codec.AddressSize:])
	return addr.Hex()
}
