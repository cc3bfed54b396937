package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/casper-ecosystem/casper-client-go/crypto"
)

const (
	secretKeyFileName    = "secret_key.pem"
	publicKeyHexFileName = "public_key_hex"
)

type keygenConfig struct {
	Base      *baseConfiguration
	Algorithm string
	Force     bool
}

// newKeygenCmd creates the command that generates an account key pair into
// a directory: the PEM-encoded secret key plus the hex public key.
func newKeygenCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &keygenConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "keygen [DIR]",
		Short: "Generates account key files in the given directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return keygenRunFun(cmd, config, dir)
		},
	}
	cmd.Flags().StringVar(&config.Algorithm, "algorithm", "ed25519", "signature algorithm of the generated key, one of: ed25519, secp256k1")
	cmd.Flags().BoolVar(&config.Force, flagNameForce, false, "overwrite existing key files")
	return cmd
}

func keygenRunFun(cmd *cobra.Command, config *keygenConfig, dir string) error {
	var alg crypto.Algorithm
	switch config.Algorithm {
	case "ed25519":
		alg = crypto.Ed25519
	case "secp256k1":
		alg = crypto.Secp256k1
	default:
		return fmt.Errorf("unknown algorithm %q", config.Algorithm)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	secretKeyFile := filepath.Join(dir, secretKeyFileName)
	publicKeyFile := filepath.Join(dir, publicKeyHexFileName)
	if !config.Force {
		for _, f := range []string{secretKeyFile, publicKeyFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("%s exists, use --%s to overwrite", f, flagNameForce)
			}
		}
	}

	key, err := crypto.GenerateKey(alg)
	if err != nil {
		return fmt.Errorf("generating %s key: %w", alg, err)
	}
	if err := key.WriteFile(secretKeyFile); err != nil {
		return fmt.Errorf("writing secret key: %w", err)
	}
	pub := key.PublicKey()
	if err := os.WriteFile(publicKeyFile, []byte(pub.Hex()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "public key:   %s\n", pub.Hex())
	fmt.Fprintf(cmd.OutOrStdout(), "account hash: account-hash-%s\n", hex.EncodeToString(pub.AccountHash()))
	return nil
}
