package evidence

import "github.com/attestprotocol/attest/internal/ledger"

// Info is the fully reconstructed signed state of an evidence record.
// It is rebuilt from ledger state on every GetInfo call, never cached.
type Info struct {
	// CredentialHash is "0x" followed by the decoded string contents of
	// the record's first two hash slots, or bare "0x" when no hash is
	// set. Anchoring a 64-character hash split across both slots reads
	// back as that same hash.
	CredentialHash string `json:"credential_hash"`

	// Signers lists signer identities in ledger order, including signers
	// that have not signed yet.
	Signers []string `json:"signers"`

	// Signatures maps signer identity to its signature, for signers
	// whose slot is populated.
	Signatures map[string]SignInfo `json:"signatures"`
}

// SignInfo is one signer's contribution to an evidence record.
type SignInfo struct {
	// Signature is the serialized base64 signature token.
	Signature string `json:"signature"`

	// Timestamp is reserved. The current contract read does not return
	// signing times, so it is never populated.
	Timestamp string `json:"timestamp,omitempty"`
}

// TransactionInfo is the ledger metadata of a confirmed write. Reads
// never carry one.
type TransactionInfo struct {
	BlockNumber      uint64 `json:"block_number"`
	TransactionHash  string `json:"transaction_hash"`
	TransactionIndex uint32 `json:"transaction_index"`
}

func txInfoFrom(receipt *ledger.Receipt) *TransactionInfo {
	return &TransactionInfo{
		BlockNumber:      receipt.BlockNumber,
		TransactionHash:  receipt.TransactionHash,
		TransactionIndex: receipt.TransactionIndex,
	}
}
