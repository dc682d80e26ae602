// Package client is the attest Go SDK.
//
// It provides everything a caller needs to anchor and inspect evidence
// records through an attest gateway: signing content with a local
// secp256k1 key, creating records, adding co-signatures, updating hash
// values, and reading decoded record state.
//
// # Creating evidence
//
//	key, _ := keys.Generate()
//	c := client.New("http://localhost:8080")
//	result, err := c.CreateEvidence(ctx, key,
//	    []byte("document body"),
//	    []string{"sha256:deadbeef"},
//	    nil, nil,
//	)
//
// The returned address identifies the record on the ledger; pass it to
// AddSignature, SetHashValue, and GetInfo.
//
// # Co-signing
//
// Any key whose address was declared as a signer at creation time can
// add its own signature:
//
//	_, err = c.AddSignature(ctx, cosignerKey, []byte("document body"), result.Address)
//
// # Authentication
//
// When the gateway runs with auth enabled, configure the client with a
// bearer token via WithBearerToken; reads stay public either way.
package client
