// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt [LICENSE]",
	Short: "Encrypt a license using JWE with ECDH-ES+A128KW",
	Example: `  # Encrypt a license using the first public key in set
  license-kit encrypt license.txt \
  --key-set=/path/to/enc-public.jwks \
  --output=license.jwe

  # Encrypt from stdin using a specific public key ID
  cat license.b64 | license-kit encrypt - \
  --key-set=/path/to/enc-public.jwks \
  --key-id=12345678-1234-1234-1234-123456789abc \
  --output=license.jwe
`,
	Args: cobra.ExactArgs(1),
	RunE: encryptCmdRun,
}

type encryptFlags struct {
	keySet      string
	keyID       string
	inputFormat formatFlag
	output      string
}

var encryptArgs = encryptFlags{
	output: "-",
}

func init() {
	encryptCmd.Flags().StringVarP(&encryptArgs.keySet, "key-set", "k", "",
		"path or URL of the public key set JWKS file or set the environment variable "+encPublicKeySetEnvVar)
	encryptCmd.Flags().StringVar(&encryptArgs.keyID, "key-id", "",
		"specific key ID to use from the key set (optional, uses first suitable key if not specified)")
	encryptCmd.Flags().Var(&encryptArgs.inputFormat, "input-format", formatFlagUsage("input")+", detected when not set")
	encryptCmd.Flags().StringVarP(&encryptArgs.output, "output", "o", encryptArgs.output,
		"path to output file, defaults to stdout")
	_ = encryptCmd.RegisterFlagCompletionFunc("input-format", formatCompletionFunc)

	rootCmd.AddCommand(encryptCmd)
}

func encryptCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	jwksData, err := loadKeySet(ctx, encryptArgs.keySet, rootConfig.EncryptionPublicKeySet, encPublicKeySetEnvVar)
	if err != nil {
		return err
	}

	publicKeySet, err := lkm.ECDHKeySetFromJSON(jwksData)
	if err != nil {
		return fmt.Errorf("failed to parse public key set: %w", err)
	}

	lic, err := readLicense(ctx, args[0], encryptArgs.inputFormat.Format())
	if err != nil {
		return err
	}

	jweToken, err := lkm.EncryptLicense(lic, publicKeySet, encryptArgs.keyID)
	if err != nil {
		return fmt.Errorf("failed to encrypt license: %w", err)
	}

	if err := writeOutput(encryptArgs.output, []byte(jweToken+"\n")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if !isStdout(encryptArgs.output) {
		rootCmd.Printf("✔ encrypted license written to: %s\n", encryptArgs.output)
	}
	return nil
}
