// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"hash/adler32"
	"path"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate JWKs with asymmetric key pairs for signing and encryption",
}

var keygenSigCmd = &cobra.Command{
	Use:   "sig [ISSUER]",
	Short: "Generate EdDSA or RSA key pair in JWKS format for signing and verification",
	Example: `  # Generate an Ed25519 key pair in the current directory
  license-kit keygen sig https://licenses.example.com

  # Generate an RSA key pair in a specific directory
  license-kit keygen sig https://licenses.example.com --algorithm=RSA-PKCS1-v1_5 -o ./keys

  # Use the issuer from the config file
  license-kit keygen sig --config=license-kit.yaml
`,
	Args:              cobra.MaximumNArgs(1),
	RunE:              keygenSigCmdRun,
	ValidArgsFunction: cobra.NoFileCompletions,
}

var keygenEncCmd = &cobra.Command{
	Use:   "enc [ISSUER]",
	Short: "Generate ECDH-ES+A128KW JWKs for JWE exchange",
	Example: `  # Generate key pair in the current directory
  license-kit keygen enc licenses.example.com
`,
	Args: cobra.MaximumNArgs(1),
	RunE: keygenEncCmdRun,
}

type keygenFlags struct {
	outputDir string
	algorithm string
	rsaBits   int
}

var keygenArgs = keygenFlags{
	outputDir: ".",
	algorithm: lkm.AlgorithmEdDSA,
	rsaBits:   lkm.DefaultRSABits,
}

func init() {
	keygenCmd.PersistentFlags().StringVarP(&keygenArgs.outputDir, "output-dir", "o", keygenArgs.outputDir,
		"path to output directory (defaults to current directory)")
	keygenSigCmd.Flags().StringVar(&keygenArgs.algorithm, "algorithm", keygenArgs.algorithm,
		fmt.Sprintf("signing algorithm, one of: %s (eddsa), %s (rsa)", lkm.AlgorithmEdDSA, lkm.AlgorithmRSA))
	keygenSigCmd.Flags().IntVar(&keygenArgs.rsaBits, "rsa-bits", keygenArgs.rsaBits,
		"RSA key size in bits")
	_ = keygenSigCmd.RegisterFlagCompletionFunc("algorithm",
		cobra.FixedCompletions([]string{lkm.AlgorithmEdDSA, lkm.AlgorithmRSA}, cobra.ShellCompDirectiveNoFileComp))

	keygenCmd.AddCommand(keygenSigCmd)
	keygenCmd.AddCommand(keygenEncCmd)
	rootCmd.AddCommand(keygenCmd)
}

// issuerFromArgs returns the issuer argument or the configured issuer.
func issuerFromArgs(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if rootConfig.Issuer != "" {
		return rootConfig.Issuer, nil
	}
	return "", fmt.Errorf("issuer is required")
}

// keySetPaths returns the private and public key set paths
// named after the adler32 checksum of the issuer.
func keySetPaths(issuer, use string) (string, string) {
	issuerID := fmt.Sprintf("%08x", adler32.Checksum([]byte(issuer)))
	privateKeySetPath := path.Join(keygenArgs.outputDir, fmt.Sprintf("%s-%s-private.jwks", issuerID, use))
	publicKeySetPath := path.Join(keygenArgs.outputDir, fmt.Sprintf("%s-%s-public.jwks", issuerID, use))
	return privateKeySetPath, publicKeySetPath
}

// signingAlgorithm maps the short algorithm names to the JWK algorithms.
func signingAlgorithm(name string) string {
	switch strings.ToLower(name) {
	case "eddsa", "ed25519":
		return lkm.AlgorithmEdDSA
	case "rsa", strings.ToLower(lkm.AlgorithmRSA):
		return lkm.AlgorithmRSA
	default:
		return name
	}
}

func keygenSigCmdRun(cmd *cobra.Command, args []string) error {
	issuer, err := issuerFromArgs(args)
	if err != nil {
		return err
	}

	if err := isDir(keygenArgs.outputDir); err != nil {
		return err
	}

	privateKeySetPath, publicKeySetPath := keySetPaths(issuer, lkm.UseTypeSig)

	publicKeySet, privateKeySet, err := lkm.NewKeySetPair(issuer, signingAlgorithm(keygenArgs.algorithm), keygenArgs.rsaBits)
	if err != nil {
		return err
	}

	if err := privateKeySet.WriteFile(privateKeySetPath); err != nil {
		return fmt.Errorf("failed to write private key set: %w", err)
	}

	if err := publicKeySet.WriteFile(publicKeySetPath); err != nil {
		return fmt.Errorf("failed to write public key set: %w", err)
	}

	logr.FromContextOrDiscard(cmd.Context()).V(1).Info("signing key pair generated",
		"issuer", issuer, "kid", privateKeySet.Keys[0].KeyID, "algorithm", privateKeySet.Keys[0].Algorithm)

	rootCmd.Printf("✔ private key set written to: %s\n", privateKeySetPath)
	rootCmd.Printf("✔ public key set written to: %s\n", publicKeySetPath)

	return nil
}

func keygenEncCmdRun(cmd *cobra.Command, args []string) error {
	issuer, err := issuerFromArgs(args)
	if err != nil {
		return err
	}

	if err := isDir(keygenArgs.outputDir); err != nil {
		return err
	}

	privateKeySetPath, publicKeySetPath := keySetPaths(issuer, lkm.UseTypeEnc)

	publicKeySet, privateKeySet, err := lkm.NewEncryptionKeySet()
	if err != nil {
		return err
	}

	if err := lkm.WriteECDHKeySet(privateKeySetPath, privateKeySet); err != nil {
		return fmt.Errorf("failed to write private key set: %w", err)
	}

	if err := lkm.WriteECDHKeySet(publicKeySetPath, publicKeySet); err != nil {
		return fmt.Errorf("failed to write public key set: %w", err)
	}

	rootCmd.Printf("✔ private key set written to: %s\n", privateKeySetPath)
	rootCmd.Printf("✔ public key set written to: %s\n", publicKeySetPath)

	return nil
}
