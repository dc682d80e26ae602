package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/attestprotocol/attest/pkg/client"
	"github.com/attestprotocol/attest/pkg/did"
	"github.com/attestprotocol/attest/pkg/keys"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	gatewayURL  string
	cfgFile     string
	keyFile     string
	bearerToken string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "attest",
	Short: "Evidence anchoring CLI",
	Long: `attest is the command-line interface for the attest evidence gateway.

It anchors evidence records on the ledger, adds co-signatures, updates
hash values, and reads back decoded record state.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".attest"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if gatewayURL == "" {
			gatewayURL = viper.GetString("gateway_url")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:8080"
		}
		if keyFile == "" {
			keyFile = viper.GetString("key_file")
		}
		if keyFile == "" {
			home, _ := os.UserHomeDir()
			keyFile = filepath.Join(home, ".attest", "key")
		}
		if bearerToken == "" {
			bearerToken = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.attest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "attest gateway URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&keyFile, "key", "", "private key file (default ~/.attest/key)")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "gateway bearer token (when auth is enabled)")

	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(setHashCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() *client.Client {
	opts := []client.Option{}
	if bearerToken != "" {
		opts = append(opts, client.WithBearerToken(bearerToken))
	}
	return client.New(gatewayURL, opts...)
}

// readContent loads the content to sign from --content or --content-file.
func readContent(content, contentFile string) ([]byte, error) {
	switch {
	case content != "" && contentFile != "":
		return nil, fmt.Errorf("--content and --content-file are mutually exclusive")
	case content != "":
		return []byte(content), nil
	case contentFile != "":
		b, err := os.ReadFile(contentFile)
		if err != nil {
			return nil, fmt.Errorf("read content file: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("one of --content or --content-file is required")
	}
}

// ── key ──────────────────────────────────────────────────────────────────────

var keyForce bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the local signing key",
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new secp256k1 signing key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(keyFile); err == nil && !keyForce {
			return fmt.Errorf("key file %s already exists (use --force to overwrite)", keyFile)
		}

		key, err := keys.Generate()
		if err != nil {
			return err
		}
		if err := client.SaveKey(key, keyFile); err != nil {
			return err
		}

		fmt.Printf("Key written to %s\n", keyFile)
		fmt.Printf("Address:  %s\n", key.Address().Hex())
		fmt.Printf("Identity: %s\n", did.Format(key.Address()))
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the identity derived from the local signing key",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := client.LoadKey(keyFile)
		if err != nil {
			return err
		}
		fmt.Printf("Address:  %s\n", key.Address().Hex())
		fmt.Printf("Identity: %s\n", did.Format(key.Address()))
		return nil
	},
}

func init() {
	keyGenerateCmd.Flags().BoolVar(&keyForce, "force", false, "Overwrite an existing key file")
	keyCmd.AddCommand(keyGenerateCmd)
	keyCmd.AddCommand(keyShowCmd)
}

// ── create ───────────────────────────────────────────────────────────────────

var (
	createContent     string
	createContentFile string
	createHashes      []string
	createExtras      []string
	createSigners     []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Anchor a new evidence record",
	Long: `Create signs the given content with the local key and anchors a new
evidence record on the ledger:

  attest create --content "document body" --hash sha256:deadbeef

Additional signers may be declared by identity or address; each can then
co-sign with 'attest sign':

  attest create --content-file doc.txt --hash h1 \
      --signer did:attest:0xabc... --signer 0xdef...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := client.LoadKey(keyFile)
		if err != nil {
			return err
		}
		content, err := readContent(createContent, createContentFile)
		if err != nil {
			return err
		}

		result, err := newClient().CreateEvidence(
			context.Background(), key, content, createHashes, createExtras, createSigners,
		)
		if err != nil {
			return err
		}

		fmt.Printf("Address:     %s\n", result.Address)
		if tx := result.Transaction; tx != nil {
			fmt.Printf("Block:       %d\n", tx.BlockNumber)
			fmt.Printf("Transaction: %s\n", tx.TransactionHash)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createContent, "content", "", "Content to sign")
	createCmd.Flags().StringVar(&createContentFile, "content-file", "", "File whose contents to sign")
	createCmd.Flags().StringArrayVar(&createHashes, "hash", nil, "Hash value (repeatable)")
	createCmd.Flags().StringArrayVar(&createExtras, "extra", nil, "Extra value (repeatable)")
	createCmd.Flags().StringArrayVar(&createSigners, "signer", nil, "Additional declared signer (repeatable)")
	createCmd.MarkFlagRequired("hash") //nolint:errcheck
}

// ── sign ─────────────────────────────────────────────────────────────────────

var (
	signContent     string
	signContentFile string
)

var signCmd = &cobra.Command{
	Use:   "sign <address>",
	Short: "Add this key's signature to an existing evidence record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := client.LoadKey(keyFile)
		if err != nil {
			return err
		}
		content, err := readContent(signContent, signContentFile)
		if err != nil {
			return err
		}

		result, err := newClient().AddSignature(context.Background(), key, content, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Succeeded:   %t\n", result.Succeeded)
		if tx := result.Transaction; tx != nil {
			fmt.Printf("Block:       %d\n", tx.BlockNumber)
			fmt.Printf("Transaction: %s\n", tx.TransactionHash)
		}
		return nil
	},
}

func init() {
	signCmd.Flags().StringVar(&signContent, "content", "", "Content to sign")
	signCmd.Flags().StringVar(&signContentFile, "content-file", "", "File whose contents to sign")
}

// ── set-hash ─────────────────────────────────────────────────────────────────

var setHashValues []string

var setHashCmd = &cobra.Command{
	Use:   "set-hash <address>",
	Short: "Replace the hash values of an evidence record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := client.LoadKey(keyFile)
		if err != nil {
			return err
		}

		result, err := newClient().SetHashValue(context.Background(), key, setHashValues, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Succeeded:   %t\n", result.Succeeded)
		if tx := result.Transaction; tx != nil {
			fmt.Printf("Block:       %d\n", tx.BlockNumber)
			fmt.Printf("Transaction: %s\n", tx.TransactionHash)
		}
		return nil
	},
}

func init() {
	setHashCmd.Flags().StringArrayVar(&setHashValues, "hash", nil, "Hash value (repeatable)")
	setHashCmd.MarkFlagRequired("hash") //nolint:errcheck
}

// ── info ─────────────────────────────────────────────────────────────────────

var infoFormat string

var infoCmd = &cobra.Command{
	Use:   "info <address>",
	Short: "Show the decoded state of an evidence record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := newClient().GetInfo(context.Background(), args[0])
		if err != nil {
			return err
		}

		if infoFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Printf("Credential Hash: %s\n\n", info.CredentialHash)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SIGNER\tSIGNED")
		seen := map[string]bool{}
		for _, signer := range info.Signers {
			signed := "no"
			if _, ok := info.Signatures[signer]; ok {
				signed = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\n", signer, signed)
			seen[signer] = true
		}
		// Signatures whose signer is not in the declared list (legacy
		// alignment can produce these).
		extra := make([]string, 0)
		for signer := range info.Signatures {
			if !seen[signer] {
				extra = append(extra, signer)
			}
		}
		sort.Strings(extra)
		for _, signer := range extra {
			fmt.Fprintf(w, "%s\tyes (undeclared)\n", signer)
		}
		return w.Flush()
	},
}

func init() {
	infoCmd.Flags().StringVar(&infoFormat, "format", "text", "Output format: text or json")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the attest CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("attest", version)
	},
}
