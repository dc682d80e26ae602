package ledger_test

import (
	"context"
	"testing"

	"github.com/attestprotocol/attest/internal/ledger"
	"github.com/attestprotocol/attest/pkg/codec"
	"github.com/attestprotocol/attest/pkg/keys"
)

var ctx = context.Background()

func newKey(t *testing.T) *keys.PrivateKey {
	t.Helper()
	k, err := keys.Generate()
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func createRecord(t *testing.T, c *ledger.MemoryClient, key *keys.PrivateKey, signers []codec.Address) string {
	t.Helper()
	sig := key.SignContent([]byte("content"))
	receipt, err := c.Submit(ctx, ledger.Call{
		Method: ledger.MethodCreateEvidence,
		Args: []any{
			codec.SlotsOf([]string{"hash-part-1", "hash-part-2"}),
			signers,
			sig.R, sig.S, sig.V,
			[]codec.Slot{},
		},
		Key: key,
	})
	if err != nil {
		t.Fatal(err)
	}
	events := receipt.EventsOf(ledger.EventCreateEvidence)
	if len(events) != 1 {
		t.Fatalf("expected 1 create event, got %d", len(events))
	}
	if events[0].Code != ledger.CodeSuccess {
		t.Fatalf("create rejected with code %d", events[0].Code)
	}
	if events[0].Address == "" {
		t.Fatal("create event has no address")
	}
	return events[0].Address
}

func TestSubmit_createStoresCreatorSignature(t *testing.T) {
	c := ledger.NewMemoryClient()
	key := newKey(t)
	addr := createRecord(t, c, key, []codec.Address{key.Address()})

	fields, err := c.Read(ctx, addr, ledger.MethodGetInfo)
	if err != nil {
		t.Fatal(err)
	}
	if fields == nil {
		t.Fatal("expected record state, got nil")
	}
	vs := fields[4].([]uint8)
	if len(vs) != 1 || vs[0] == 0 {
		t.Errorf("creator's signature slot not filled: %v", vs)
	}
}

func TestSubmit_createRejectsEmptyHash(t *testing.T) {
	c := ledger.NewMemoryClient()
	key := newKey(t)
	sig := key.SignContent([]byte("content"))

	receipt, err := c.Submit(ctx, ledger.Call{
		Method: ledger.MethodCreateEvidence,
		Args: []any{
			[]codec.Slot{},
			[]codec.Address{key.Address()},
			sig.R, sig.S, sig.V,
			[]codec.Slot{},
		},
		Key: key,
	})
	if err != nil {
		t.Fatal(err)
	}
	events := receipt.EventsOf(ledger.EventCreateEvidence)
	if len(events) != 1 || events[0].Code != ledger.CodeIllegalInput {
		t.Fatalf("expected illegal-input event, got %+v", receipt.Events)
	}
}

func TestSubmit_addSignatureFillsDeclaredSlot(t *testing.T) {
	c := ledger.NewMemoryClient()
	creator := newKey(t)
	cosigner := newKey(t)
	addr := createRecord(t, c, creator, []codec.Address{creator.Address(), cosigner.Address()})

	sig := cosigner.SignContent([]byte("content"))
	receipt, err := c.Submit(ctx, ledger.Call{
		To:     addr,
		Method: ledger.MethodAddSignature,
		Args:   []any{sig.R, sig.S, sig.V},
		Key:    cosigner,
	})
	if err != nil {
		t.Fatal(err)
	}
	events := receipt.EventsOf(ledger.EventAddSignature)
	if len(events) != 1 || events[0].Code != ledger.CodeSuccess {
		t.Fatalf("expected success event, got %+v", receipt.Events)
	}

	fields, _ := c.Read(ctx, addr, ledger.MethodGetInfo)
	vs := fields[4].([]uint8)
	if vs[1] == 0 {
		t.Error("cosigner slot still empty after addSignature")
	}
}

func TestSubmit_addSignatureRejectsUndeclaredSigner(t *testing.T) {
	c := ledger.NewMemoryClient()
	creator := newKey(t)
	stranger := newKey(t)
	addr := createRecord(t, c, creator, []codec.Address{creator.Address()})

	sig := stranger.SignContent([]byte("content"))
	receipt, err := c.Submit(ctx, ledger.Call{
		To:     addr,
		Method: ledger.MethodAddSignature,
		Args:   []any{sig.R, sig.S, sig.V},
		Key:    stranger,
	})
	if err != nil {
		t.Fatal(err)
	}
	events := receipt.EventsOf(ledger.EventAddSignature)
	if len(events) != 1 || events[0].Code != ledger.CodeIllegalInput {
		t.Fatalf("expected illegal-input event, got %+v", receipt.Events)
	}
}

func TestSubmit_setHashReplacesSlots(t *testing.T) {
	c := ledger.NewMemoryClient()
	key := newKey(t)
	addr := createRecord(t, c, key, []codec.Address{key.Address()})

	receipt, err := c.Submit(ctx, ledger.Call{
		To:     addr,
		Method: ledger.MethodSetHash,
		Args:   []any{codec.SlotsOf([]string{"new-1", "new-2"})},
		Key:    key,
	})
	if err != nil {
		t.Fatal(err)
	}
	events := receipt.EventsOf(ledger.EventAddHash)
	if len(events) != 1 || events[0].Code != ledger.CodeSuccess {
		t.Fatalf("expected success event, got %+v", receipt.Events)
	}

	fields, _ := c.Read(ctx, addr, ledger.MethodGetInfo)
	hashSlots := fields[0].([]codec.Slot)
	if codec.SlotToString(hashSlots[0]) != "new-1" {
		t.Errorf("hash slots not replaced: %q", codec.SlotToString(hashSlots[0]))
	}
}

func TestRead_unknownAddressReturnsNil(t *testing.T) {
	c := ledger.NewMemoryClient()
	fields, err := c.Read(ctx, "0x0000000000000000000000000000000000000042", ledger.MethodGetInfo)
	if err != nil {
		t.Fatal(err)
	}
	if fields != nil {
		t.Errorf("expected nil fields for unknown address, got %v", fields)
	}
}

func TestSubmit_honorsCancelledContext(t *testing.T) {
	c := ledger.NewMemoryClient()
	key := newKey(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Submit(cancelled, ledger.Call{Method: ledger.MethodCreateEvidence, Key: key}); err == nil {
		t.Error("expected error from cancelled context")
	}
}
