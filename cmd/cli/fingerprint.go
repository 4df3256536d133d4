// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	_ "crypto/sha256"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [LICENSE]",
	Short: "Print the fingerprint and the content digest of a license",
	Long: `The fingerprint command prints the UUID fingerprint of the license and the
SHA-256 digest of its unsigned binary form. Both values ignore the signature,
so they stay the same when a license is signed again.`,
	Example: `  # Print the fingerprint of a license
  license-kit fingerprint license.txt
`,
	Args: cobra.ExactArgs(1),
	RunE: fingerprintCmdRun,
}

type fingerprintFlags struct {
	inputFormat formatFlag
}

var fingerprintArgs fingerprintFlags

func init() {
	fingerprintCmd.Flags().Var(&fingerprintArgs.inputFormat, "input-format", formatFlagUsage("input")+", detected when not set")
	_ = fingerprintCmd.RegisterFlagCompletionFunc("input-format", formatCompletionFunc)

	rootCmd.AddCommand(fingerprintCmd)
}

func fingerprintCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	lic, err := readLicense(ctx, args[0], fingerprintArgs.inputFormat.Format())
	if err != nil {
		return err
	}

	rootCmd.Printf("fingerprint: %s\n", lic.Fingerprint())
	rootCmd.Printf("digest: %s\n", digest.FromBytes(lic.Unsigned()))
	return nil
}
