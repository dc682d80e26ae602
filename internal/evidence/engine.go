// Package evidence implements the evidence record lifecycle: anchoring a
// signed content hash on the ledger, appending co-signatures over time,
// amending the hash, and reconstructing the full signed state from the
// contract's parallel slot lists.
package evidence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/attestprotocol/attest/internal/ledger"
	"github.com/attestprotocol/attest/pkg/codec"
	"github.com/attestprotocol/attest/pkg/did"
	"github.com/attestprotocol/attest/pkg/keys"
	"github.com/attestprotocol/attest/pkg/sigserial"
)

// DefaultTimeout bounds each ledger wait when the caller's context
// carries no earlier deadline.
const DefaultTimeout = 13 * time.Second

// Engine orchestrates the four evidence operations against a ledger
// client. Every call is independent: there is no retry, no cancellation
// after submission, and no serialization across concurrent callers
// touching the same record.
type Engine struct {
	client      ledger.Client
	timeout     time.Duration
	legacyAlign bool
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides the default per-operation wait bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLegacyAlignment restores positional signer-to-signature matching in
// GetInfo: surviving signatures are zipped against the signer list by
// post-filter position instead of original slot index. An empty slot
// before a populated one then shifts the mapping — only use this to stay
// compatible with consumers that depend on the shifted form.
func WithLegacyAlignment() Option {
	return func(e *Engine) { e.legacyAlign = true }
}

// NewEngine creates an Engine on top of client.
func NewEngine(client ledger.Client, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		client:  client,
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// opCtx bounds one ledger wait. The caller's own deadline, if earlier,
// wins.
func (e *Engine) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.timeout)
}

// CreateEvidence anchors a new evidence record and returns its address.
//
// When signers is empty the sole signer defaults to the identity behind
// key. An explicit signer list is translated identity-by-identity to
// ledger account form; duplicates are passed through as-is.
//
// A contract-level rejection still returns the transaction metadata: the
// write executed on-ledger before validation embedded the failure code.
func (e *Engine) CreateEvidence(
	ctx context.Context,
	sig sigserial.SignatureData,
	hashValues []string,
	extraValues []string,
	key *keys.PrivateKey,
	signers []string,
) (string, *TransactionInfo, error) {
	var signerAddrs []codec.Address
	if len(signers) == 0 {
		// Sole signer defaults to the account behind the submitting key.
		signerAddrs = append(signerAddrs, key.Address())
	} else {
		for _, identity := range signers {
			addr, err := did.ToAddress(identity)
			if err != nil {
				return "", nil, fmt.Errorf("%w: translate signer: %v", ErrExecution, err)
			}
			signerAddrs = append(signerAddrs, addr)
		}
	}

	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	receipt, err := e.client.Submit(opCtx, ledger.Call{
		Method: ledger.MethodCreateEvidence,
		Args: []any{
			codec.SlotsOf(hashValues),
			signerAddrs,
			sig.R, sig.S, sig.V,
			codec.SlotsOf(extraValues),
		},
		Key: key,
	})
	if err != nil {
		e.logger.Error("create evidence: submission failed", zap.Error(err))
		return "", nil, classify(err)
	}

	info := txInfoFrom(receipt)
	events := receipt.EventsOf(ledger.EventCreateEvidence)
	if len(events) != 1 {
		e.logger.Error("create evidence: event decoding failure",
			zap.Int("events", len(events)),
			zap.String("tx_hash", receipt.TransactionHash),
		)
		return "", info, fmt.Errorf("%w: expected one create event, got %d", ErrEvidence, len(events))
	}

	event := events[0]
	if err := interpret(event.Code); err != nil {
		return "", info, err
	}
	if event.Address == "" {
		e.logger.Error("create evidence: event carries no address",
			zap.String("tx_hash", receipt.TransactionHash),
		)
		return "", info, fmt.Errorf("%w: create event carries no address", ErrEvidence)
	}
	return event.Address, info, nil
}

// AddSignature appends a co-signature to the record at address. It
// mutates the existing record; no new address is produced.
func (e *Engine) AddSignature(
	ctx context.Context,
	sig sigserial.SignatureData,
	key *keys.PrivateKey,
	address string,
) (bool, *TransactionInfo, error) {
	return e.submitMutation(ctx, key, ledger.Call{
		To:     address,
		Method: ledger.MethodAddSignature,
		Args:   []any{sig.R, sig.S, sig.V},
		Key:    key,
	}, ledger.EventAddSignature, "add signature")
}

// SetHashValue amends the record's hash slots. It does not attach a
// signature; callers wanting a signed hash update follow with
// AddSignature.
func (e *Engine) SetHashValue(
	ctx context.Context,
	hashValues []string,
	key *keys.PrivateKey,
	address string,
) (bool, *TransactionInfo, error) {
	return e.submitMutation(ctx, key, ledger.Call{
		To:     address,
		Method: ledger.MethodSetHash,
		Args:   []any{codec.SlotsOf(hashValues)},
		Key:    key,
	}, ledger.EventAddHash, "set hash value")
}

// submitMutation is the shared confirm-or-timeout path of the two
// mutating operations.
func (e *Engine) submitMutation(
	ctx context.Context,
	key *keys.PrivateKey,
	call ledger.Call,
	eventKind string,
	opName string,
) (bool, *TransactionInfo, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	receipt, err := e.client.Submit(opCtx, call)
	if err != nil {
		e.logger.Error(opName+": submission failed", zap.Error(err))
		return false, nil, classify(err)
	}

	info := txInfoFrom(receipt)
	events := receipt.EventsOf(eventKind)
	if len(events) != 1 {
		e.logger.Error(opName+": event decoding failure",
			zap.Int("events", len(events)),
			zap.String("tx_hash", receipt.TransactionHash),
		)
		return false, info, fmt.Errorf("%w: expected one %s event, got %d", ErrEvidence, eventKind, len(events))
	}
	if err := interpret(events[0].Code); err != nil {
		return false, info, err
	}
	return true, info, nil
}

// GetInfo reconstructs the record's signed state from ledger storage.
// Read-only: no transaction is submitted and no metadata is returned.
func (e *Engine) GetInfo(ctx context.Context, address string) (*Info, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	fields, err := e.client.Read(opCtx, address, ledger.MethodGetInfo)
	if err != nil {
		e.logger.Error("get info: read failed", zap.Error(err))
		return nil, classify(err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w %s", ErrNotFound, address)
	}
	if len(fields) < 5 {
		return nil, fmt.Errorf("%w: expected 5 state lists, got %d", ErrEvidence, len(fields))
	}

	hashSlots, ok1 := fields[0].([]codec.Slot)
	signerAddrs, ok2 := fields[1].([]codec.Address)
	rSlots, ok3 := fields[2].([]codec.Slot)
	sSlots, ok4 := fields[3].([]codec.Slot)
	vSlots, ok5 := fields[4].([]uint8)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return nil, fmt.Errorf("%w: unexpected state list types", ErrEvidence)
	}
	if len(sSlots) != len(rSlots) || len(vSlots) != len(rSlots) {
		return nil, fmt.Errorf("%w: signature lists are not parallel", ErrEvidence)
	}

	info := &Info{Signatures: make(map[string]SignInfo)}

	// The hash is stored as string fragments across the first two slots;
	// decoding them restores exactly what the writer anchored. Slots
	// beyond index 1 are ignored, matching the contract's two-slot hash
	// layout.
	if len(hashSlots) < 2 {
		info.CredentialHash = codec.HexPrefix
	} else {
		info.CredentialHash = codec.HexPrefix + codec.SlotToString(hashSlots[0]) + codec.SlotToString(hashSlots[1])
	}

	for _, addr := range signerAddrs {
		info.Signers = append(info.Signers, did.Format(addr))
	}

	// Collect populated signature slots, keeping each one's original
	// index. A v of 0 marks an empty slot and contributes nothing.
	type indexedSig struct {
		idx   int
		token string
	}
	var sigs []indexedSig
	for i := range rSlots {
		if vSlots[i] == 0 {
			continue
		}
		token := sigserial.SignatureData{V: vSlots[i], R: rSlots[i], S: sSlots[i]}.Serialize()
		sigs = append(sigs, indexedSig{idx: i, token: token})
	}

	if e.legacyAlign {
		// Positional zip: the k-th surviving signature pairs with the
		// k-th signer regardless of which slot it came from.
		for k, sig := range sigs {
			if k >= len(info.Signers) {
				break
			}
			info.Signatures[info.Signers[k]] = SignInfo{Signature: sig.token}
		}
	} else {
		for _, sig := range sigs {
			if sig.idx >= len(info.Signers) {
				break
			}
			info.Signatures[info.Signers[sig.idx]] = SignInfo{Signature: sig.token}
		}
	}

	return info, nil
}
