package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/attestprotocol/attest/pkg/keys"
)

// LoadKey reads a hex-encoded secp256k1 private key from path. Keys are
// written to disk by 'attest key generate' and read back here.
func LoadKey(path string) (*keys.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %q: %w", path, err)
	}
	key, err := keys.FromHex(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, fmt.Errorf("parse key file %q: %w", path, err)
	}
	return key, nil
}

// SaveKey writes key to path in hex form with owner-only permissions,
// creating parent directories as needed.
func SaveKey(key *keys.PrivateKey, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(key.Hex()+"\n"), 0o600); err != nil {
		return fmt.Errorf("write key file %q: %w", path, err)
	}
	return nil
}
