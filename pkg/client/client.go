package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/attestprotocol/attest/pkg/keys"
	"github.com/attestprotocol/attest/pkg/sigserial"
)

// ErrNotFound is returned when the gateway has no evidence at the
// requested address, or the record could not be decoded.
var ErrNotFound = errors.New("evidence not found")

// TransactionInfo mirrors the transaction metadata the gateway returns
// with every confirmed write.
type TransactionInfo struct {
	BlockNumber      uint64 `json:"block_number"`
	TransactionHash  string `json:"transaction_hash"`
	TransactionIndex uint32 `json:"transaction_index"`
}

// CreateResult holds the outcome of CreateEvidence.
type CreateResult struct {
	Address     string           `json:"address"`
	Transaction *TransactionInfo `json:"transaction"`
}

// MutateResult holds the outcome of AddSignature and SetHashValue.
type MutateResult struct {
	Succeeded   bool             `json:"succeeded"`
	Transaction *TransactionInfo `json:"transaction"`
}

// SignInfo is one recorded signature on an evidence record.
type SignInfo struct {
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp,omitempty"`
}

// EvidenceInfo is the decoded on-ledger state of an evidence record.
type EvidenceInfo struct {
	CredentialHash string              `json:"credential_hash"`
	Signers        []string            `json:"signers"`
	Signatures     map[string]SignInfo `json:"signatures"`
}

// Client is the attest gateway SDK entry point.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken attaches a gateway access token to every request.
// Required when the gateway runs with auth enabled.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearerToken = token }
}

// New creates a Client connected to the gateway at baseURL.
//
//	c := client.New("http://localhost:8080",
//	    client.WithBearerToken(token),
//	)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateEvidence signs content with key, anchors a new evidence record,
// and returns its ledger address. Extra values and additional signers
// are optional; when signers is empty the key's own address is the sole
// declared signer.
func (c *Client) CreateEvidence(ctx context.Context, key *keys.PrivateKey, content []byte, hashValues, extraValues, signers []string) (*CreateResult, error) {
	payload := map[string]any{
		"signature":   key.SignContent(content).Serialize(),
		"hash_values": hashValues,
		"private_key": key.Decimal(),
	}
	if len(extraValues) > 0 {
		payload["extra_values"] = extraValues
	}
	if len(signers) > 0 {
		payload["signers"] = signers
	}

	body, err := c.do(ctx, http.MethodPost, "/api/v1/evidence", payload)
	if err != nil {
		return nil, err
	}

	var result CreateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode create response: %w", err)
	}
	return &result, nil
}

// AddSignature signs content with key and records the signature on the
// evidence at address. The key's address must be a declared signer.
func (c *Client) AddSignature(ctx context.Context, key *keys.PrivateKey, content []byte, address string) (*MutateResult, error) {
	payload := map[string]any{
		"signature":   key.SignContent(content).Serialize(),
		"private_key": key.Decimal(),
	}
	return c.mutate(ctx, http.MethodPost, "/api/v1/evidence/"+address+"/signatures", payload)
}

// AddSignatureToken records a pre-serialized signature token on the
// evidence at address, for callers that sign out-of-process.
func (c *Client) AddSignatureToken(ctx context.Context, key *keys.PrivateKey, sig sigserial.SignatureData, address string) (*MutateResult, error) {
	payload := map[string]any{
		"signature":   sig.Serialize(),
		"private_key": key.Decimal(),
	}
	return c.mutate(ctx, http.MethodPost, "/api/v1/evidence/"+address+"/signatures", payload)
}

// SetHashValue replaces the hash slots of the evidence at address.
func (c *Client) SetHashValue(ctx context.Context, key *keys.PrivateKey, hashValues []string, address string) (*MutateResult, error) {
	payload := map[string]any{
		"hash_values": hashValues,
		"private_key": key.Decimal(),
	}
	return c.mutate(ctx, http.MethodPut, "/api/v1/evidence/"+address+"/hash", payload)
}

// GetInfo fetches and decodes the evidence record at address.
func (c *Client) GetInfo(ctx context.Context, address string) (*EvidenceInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/evidence/"+address, nil)
	if err != nil {
		return nil, err
	}

	var info EvidenceInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode evidence response: %w", err)
	}
	return &info, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, payload map[string]any) (*MutateResult, error) {
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	var result MutateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// do executes a JSON request against the gateway, attaching the bearer
// token if present.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("unauthorized: %s", string(body))
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
