// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt [TOKEN]",
	Short: "Decrypt a JWE encrypted license",
	Example: `  # Decrypt a license with the private key set from the environment
  export LICENSE_KIT_ENC_PRIVATE_JWKS="$(cat /path/to/enc-private.jwks)"
  license-kit decrypt license.jwe -o license.txt

  # Decrypt a license published at a URL and print it as JSON
  license-kit decrypt https://licenses.example.com/acme.jwe \
  --key-set=/path/to/enc-private.jwks \
  --output-format=json
`,
	Args: cobra.ExactArgs(1),
	RunE: decryptCmdRun,
}

type decryptFlags struct {
	keySet       string
	outputFormat formatFlag
	output       string
}

var decryptArgs = decryptFlags{
	output: "-",
}

func init() {
	decryptCmd.Flags().StringVarP(&decryptArgs.keySet, "key-set", "k", "",
		"path to private key set JWKS file or set the environment variable "+encPrivateKeySetEnvVar)
	decryptCmd.Flags().Var(&decryptArgs.outputFormat, "output-format", formatFlagUsage("output"))
	decryptCmd.Flags().StringVarP(&decryptArgs.output, "output", "o", decryptArgs.output,
		"path to output file, defaults to stdout")
	_ = decryptCmd.RegisterFlagCompletionFunc("output-format", formatCompletionFunc)

	rootCmd.AddCommand(decryptCmd)
}

func decryptCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	jwksData, err := loadKeySet(ctx, decryptArgs.keySet, rootConfig.EncryptionPrivateKeySet, encPrivateKeySetEnvVar)
	if err != nil {
		return err
	}

	privateKeySet, err := lkm.ECDHKeySetFromJSON(jwksData)
	if err != nil {
		return fmt.Errorf("failed to parse private key set: %w", err)
	}

	token, err := readInput(ctx, args[0], lkm.ContentTypeEncryptedToken)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	lic, err := lkm.DecryptLicense(bytes.TrimSpace(token), privateKeySet)
	if err != nil {
		return fmt.Errorf("failed to decrypt license: %w", err)
	}

	if err := writeLicense(decryptArgs.output, lic, decryptArgs.outputFormat.Format()); err != nil {
		return err
	}

	if !isStdout(decryptArgs.output) {
		rootCmd.Printf("✔ decrypted license written to: %s\n", decryptArgs.output)
	}
	return nil
}
