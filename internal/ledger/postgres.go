package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/attestprotocol/attest/pkg/codec"
)

// advisoryLockKey serialises concurrent Submit calls so block numbers and
// signer-slot updates are assigned in a single total order. The value is
// arbitrary but must be consistent across all attestd instances.
const advisoryLockKey = int64(7_340_118_201)

// PostgresClient stores evidence contract state in PostgreSQL. It
// implements Client with the same validation rules and event codes as
// MemoryClient. Schema: internal/ledger/schema.sql.
type PostgresClient struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresClient creates a PostgresClient backed by the given pool.
func NewPostgresClient(pool *pgxpool.Pool, logger *zap.Logger) *PostgresClient {
	return &PostgresClient{pool: pool, logger: logger}
}

// Submit implements Client. Each call runs in one transaction guarded by
// an advisory lock; the transaction's serial row id doubles as the block
// number in the receipt.
func (p *PostgresClient) Submit(ctx context.Context, call Call) (*Receipt, error) {
	if call.Key == nil {
		return nil, fmt.Errorf("submit %s: no signing key", call.Method)
	}
	sender := call.Key.Address()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	txHash := newTxHash()
	var blockNum uint64
	if err := tx.QueryRow(ctx,
		`INSERT INTO ledger_transactions (tx_hash, method, sender)
		 VALUES ($1, $2, $3) RETURNING block_number`,
		txHash, call.Method, sender[:],
	).Scan(&blockNum); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	receipt := &Receipt{TransactionHash: txHash, BlockNumber: blockNum}

	var event Event
	switch call.Method {
	case MethodCreateEvidence:
		event, err = p.createEvidence(ctx, tx, sender, blockNum, call.Args)
	case MethodAddSignature:
		event, err = p.addSignature(ctx, tx, sender, call.To, call.Args)
	case MethodSetHash:
		event, err = p.setHash(ctx, tx, sender, call.To, call.Args)
	default:
		return nil, fmt.Errorf("unknown contract method %q", call.Method)
	}
	if err != nil {
		return nil, err
	}
	receipt.Events = append(receipt.Events, event)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	p.logger.Debug("transaction confirmed",
		zap.String("method", call.Method),
		zap.String("tx_hash", txHash),
		zap.Uint64("block", blockNum),
	)
	return receipt, nil
}

func (p *PostgresClient) createEvidence(ctx context.Context, tx pgx.Tx, sender codec.Address, blockNum uint64, args []any) (Event, error) {
	ev := Event{Kind: EventCreateEvidence, Code: CodeSuccess}

	if len(args) != 6 {
		ev.Code = CodeIllegalInput
		return ev, nil
	}
	hashSlots, ok1 := args[0].([]codec.Slot)
	signers, ok2 := args[1].([]codec.Address)
	r, ok3 := args[2].(codec.Slot)
	s, ok4 := args[3].(codec.Slot)
	v, ok5 := args[4].(uint8)
	extraSlots, ok6 := args[5].([]codec.Slot)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) || len(hashSlots) == 0 || len(signers) == 0 {
		ev.Code = CodeIllegalInput
		return ev, nil
	}

	addr := deriveAddress(sender, blockNum)
	if _, err := tx.Exec(ctx,
		"INSERT INTO evidence_records (address) VALUES ($1)", addr,
	); err != nil {
		return ev, fmt.Errorf("insert evidence record: %w", err)
	}

	for i, slot := range hashSlots {
		if _, err := tx.Exec(ctx,
			"INSERT INTO evidence_hash_slots (address, idx, slot) VALUES ($1, $2, $3)",
			addr, i, slot[:],
		); err != nil {
			return ev, fmt.Errorf("insert hash slot %d: %w", i, err)
		}
	}
	for i, slot := range extraSlots {
		if _, err := tx.Exec(ctx,
			"INSERT INTO evidence_extra_slots (address, idx, slot) VALUES ($1, $2, $3)",
			addr, i, slot[:],
		); err != nil {
			return ev, fmt.Errorf("insert extra slot %d: %w", i, err)
		}
	}

	var empty codec.Slot
	for i, signer := range signers {
		rSlot, sSlot, vVal := empty, empty, uint8(0)
		if signer == sender && v != 0 {
			rSlot, sSlot, vVal = r, s, v
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO evidence_signers (address, idx, signer, r, s, v)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			addr, i, signer[:], rSlot[:], sSlot[:], int16(vVal),
		); err != nil {
			return ev, fmt.Errorf("insert signer slot %d: %w", i, err)
		}
		// Only the first slot declared for the sender takes the creating
		// signature; duplicates keep their own empty slots.
		if signer == sender {
			v = 0
		}
	}

	ev.Address = addr
	return ev, nil
}

func (p *PostgresClient) addSignature(ctx context.Context, tx pgx.Tx, sender codec.Address, to string, args []any) (Event, error) {
	ev := Event{Kind: EventAddSignature, Code: CodeIllegalInput}

	if len(args) != 3 {
		return ev, nil
	}
	r, ok1 := args[0].(codec.Slot)
	s, ok2 := args[1].(codec.Slot)
	v, ok3 := args[2].(uint8)
	if !(ok1 && ok2 && ok3) || v == 0 {
		return ev, nil
	}

	tag, err := tx.Exec(ctx,
		`UPDATE evidence_signers SET r = $1, s = $2, v = $3
		 WHERE address = $4 AND idx = (
		   SELECT idx FROM evidence_signers
		   WHERE address = $4 AND signer = $5
		   ORDER BY idx LIMIT 1
		 )`,
		r[:], s[:], int16(v), to, sender[:],
	)
	if err != nil {
		return ev, fmt.Errorf("update signer slot: %w", err)
	}
	if tag.RowsAffected() > 0 {
		ev.Code = CodeSuccess
	}
	return ev, nil
}

func (p *PostgresClient) setHash(ctx context.Context, tx pgx.Tx, sender codec.Address, to string, args []any) (Event, error) {
	ev := Event{Kind: EventAddHash, Code: CodeIllegalInput}

	if len(args) != 1 {
		return ev, nil
	}
	hashSlots, ok := args[0].([]codec.Slot)
	if !ok || len(hashSlots) == 0 {
		return ev, nil
	}

	var declared bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM evidence_signers WHERE address = $1 AND signer = $2)",
		to, sender[:],
	).Scan(&declared); err != nil {
		return ev, fmt.Errorf("check declared signer: %w", err)
	}
	if !declared {
		return ev, nil
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM evidence_hash_slots WHERE address = $1", to,
	); err != nil {
		return ev, fmt.Errorf("clear hash slots: %w", err)
	}
	for i, slot := range hashSlots {
		if _, err := tx.Exec(ctx,
			"INSERT INTO evidence_hash_slots (address, idx, slot) VALUES ($1, $2, $3)",
			to, i, slot[:],
		); err != nil {
			return ev, fmt.Errorf("insert hash slot %d: %w", i, err)
		}
	}
	ev.Code = CodeSuccess
	return ev, nil
}

// Read implements Client.
func (p *PostgresClient) Read(ctx context.Context, address, method string) ([]any, error) {
	if method != MethodGetInfo {
		return nil, fmt.Errorf("unknown read method %q", method)
	}

	var exists bool
	if err := p.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM evidence_records WHERE address = $1)", address,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check evidence record: %w", err)
	}
	if !exists {
		return nil, nil
	}

	hashSlots, err := p.readSlots(ctx, "evidence_hash_slots", address)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx,
		"SELECT signer, r, s, v FROM evidence_signers WHERE address = $1 ORDER BY idx ASC",
		address,
	)
	if err != nil {
		return nil, fmt.Errorf("query signer slots: %w", err)
	}
	defer rows.Close()

	var (
		signers []codec.Address
		rSlots  []codec.Slot
		sSlots  []codec.Slot
		vSlots  []uint8
	)
	for rows.Next() {
		var signerB, rB, sB []byte
		var v int16
		if err := rows.Scan(&signerB, &rB, &sB, &v); err != nil {
			return nil, fmt.Errorf("scan signer slot: %w", err)
		}
		var signer codec.Address
		var rSlot, sSlot codec.Slot
		copy(signer[:], signerB)
		copy(rSlot[:], rB)
		copy(sSlot[:], sB)
		signers = append(signers, signer)
		rSlots = append(rSlots, rSlot)
		sSlots = append(sSlots, sSlot)
		vSlots = append(vSlots, uint8(v))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signer slots: %w", err)
	}

	return []any{hashSlots, signers, rSlots, sSlots, vSlots}, nil
}

func (p *PostgresClient) readSlots(ctx context.Context, table, address string) ([]codec.Slot, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT slot FROM "+table+" WHERE address = $1 ORDER BY idx ASC", address,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var slots []codec.Slot
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var slot codec.Slot
		copy(slot[:], b)
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
