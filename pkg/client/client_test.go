package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/attestprotocol/attest/pkg/client"
	"github.com/attestprotocol/attest/pkg/keys"
	"github.com/attestprotocol/attest/pkg/sigserial"
)

func stubGatewayServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/evidence", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad json"}`, http.StatusBadRequest)
			return
		}
		if req["signature"] == "" || req["private_key"] == "" {
			http.Error(w, `{"error":"missing fields"}`, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"address": "0x00000000000000000000000000000000000000aa",
			"transaction": map[string]any{
				"block_number":      7,
				"transaction_hash":  "0xfeed",
				"transaction_index": 0,
			},
		})
	})

	mux.HandleFunc("/api/v1/evidence/0x00000000000000000000000000000000000000aa/signatures", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"succeeded":   true,
			"transaction": map[string]any{"block_number": 8, "transaction_hash": "0xbeef"},
		})
	})

	mux.HandleFunc("/api/v1/evidence/0x00000000000000000000000000000000000000aa/hash", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"succeeded":   true,
			"transaction": map[string]any{"block_number": 9, "transaction_hash": "0xcafe"},
		})
	})

	mux.HandleFunc("/api/v1/evidence/0x00000000000000000000000000000000000000aa", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"credential_hash": "0xabcd",
			"signers":         []string{"did:attest:0x00000000000000000000000000000000000000bb"},
			"signatures": map[string]any{
				"did:attest:0x00000000000000000000000000000000000000bb": map[string]any{"signature": "c2ln"},
			},
		})
	})

	mux.HandleFunc("/api/v1/evidence/0x0000000000000000000000000000000000000000", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"evidence not found or undecodable"}`, http.StatusNotFound)
	})

	return httptest.NewServer(mux)
}

func TestCreateEvidence(t *testing.T) {
	srv := stubGatewayServer(t)
	defer srv.Close()

	key, err := keys.Generate()
	if err != nil {
		t.Fatal(err)
	}

	c := client.New(srv.URL)
	result, err := c.CreateEvidence(context.Background(), key, []byte("doc"), []string{"h1"}, nil, nil)
	if err != nil {
		t.Fatalf("CreateEvidence: %v", err)
	}
	if result.Address != "0x00000000000000000000000000000000000000aa" {
		t.Errorf("unexpected address %q", result.Address)
	}
	if result.Transaction == nil || result.Transaction.BlockNumber != 7 {
		t.Errorf("unexpected transaction %+v", result.Transaction)
	}
}

func TestAddSignature(t *testing.T) {
	srv := stubGatewayServer(t)
	defer srv.Close()

	key, _ := keys.Generate()
	c := client.New(srv.URL)

	result, err := c.AddSignature(context.Background(), key, []byte("doc"), "0x00000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatalf("AddSignature: %v", err)
	}
	if !result.Succeeded {
		t.Error("expected succeeded=true")
	}
}

func TestSetHashValue(t *testing.T) {
	srv := stubGatewayServer(t)
	defer srv.Close()

	key, _ := keys.Generate()
	c := client.New(srv.URL)

	result, err := c.SetHashValue(context.Background(), key, []string{"new"}, "0x00000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatalf("SetHashValue: %v", err)
	}
	if !result.Succeeded {
		t.Error("expected succeeded=true")
	}
}

func TestGetInfo(t *testing.T) {
	srv := stubGatewayServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	info, err := c.GetInfo(context.Background(), "0x00000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.CredentialHash != "0xabcd" {
		t.Errorf("unexpected hash %q", info.CredentialHash)
	}
	if len(info.Signers) != 1 || len(info.Signatures) != 1 {
		t.Errorf("unexpected record %+v", info)
	}
}

func TestGetInfo_notFound(t *testing.T) {
	srv := stubGatewayServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.GetInfo(context.Background(), "0x0000000000000000000000000000000000000000")
	if !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBearerToken_attached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"credential_hash": "0x"})
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithBearerToken("tok123"))
	if _, err := c.GetInfo(context.Background(), "0xabc"); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestAddSignatureToken(t *testing.T) {
	srv := stubGatewayServer(t)
	defer srv.Close()

	key, _ := keys.Generate()
	sig, err := sigserial.Deserialize(key.SignContent([]byte("doc")).Serialize())
	if err != nil {
		t.Fatal(err)
	}

	c := client.New(srv.URL)
	result, err := c.AddSignatureToken(context.Background(), key, sig, "0x00000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatalf("AddSignatureToken: %v", err)
	}
	if !result.Succeeded {
		t.Error("expected succeeded=true")
	}
}

func TestSaveLoadKey(t *testing.T) {
	key, err := keys.Generate()
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "keys", "default.key")
	if err := client.SaveKey(key, path); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600 perms, got %v", info.Mode().Perm())
	}

	loaded, err := client.LoadKey(path)
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if loaded.Decimal() != key.Decimal() {
		t.Error("round-tripped key does not match")
	}
}
