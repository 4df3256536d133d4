// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/ledger"
	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

var signCmd = &cobra.Command{
	Use:   "sign [LICENSE]",
	Short: "Sign a license with a private key set",
	Example: `  # Sign a license with the key set from the environment
  export LICENSE_KIT_SIG_PRIVATE_JWKS="$(cat /path/to/private.jwks)"
  license-kit sign license.txt -o license.txt

  # Sign with SHA3-512 and write the base64 form
  license-kit sign license.txt \
    --key-set=/path/to/private.jwks \
    --digest=SHA3-512 \
    --output-format=base64 \
    -o license.b64

  # Sign and record the license in the issuance ledger
  license-kit sign license.txt -k private.jwks --ledger=licenses.db -o license.txt
`,
	Args: cobra.ExactArgs(1),
	RunE: signCmdRun,
}

type signFlags struct {
	keySet       string
	digest       string
	inputFormat  formatFlag
	outputFormat formatFlag
	output       string
	ledger       string
}

var signArgs = signFlags{
	output: "-",
}

func init() {
	signCmd.Flags().StringVarP(&signArgs.keySet, "key-set", "k", "",
		"path or URL of the private key set, defaults to the config value or the "+sigPrivateKeySetEnvVar+" environment variable")
	signCmd.Flags().StringVar(&signArgs.digest, "digest", "",
		"digest algorithm, defaults to the config value ("+lkm.DefaultDigest+")")
	signCmd.Flags().Var(&signArgs.inputFormat, "input-format", formatFlagUsage("input")+", detected when not set")
	signCmd.Flags().Var(&signArgs.outputFormat, "output-format", formatFlagUsage("output"))
	signCmd.Flags().StringVarP(&signArgs.output, "output", "o", signArgs.output,
		"path to the output file, defaults to stdout")
	signCmd.Flags().StringVar(&signArgs.ledger, "ledger", "",
		"SQLite DSN of the ledger where the signed license is recorded")
	_ = signCmd.RegisterFlagCompletionFunc("input-format", formatCompletionFunc)
	_ = signCmd.RegisterFlagCompletionFunc("output-format", formatCompletionFunc)
	_ = signCmd.RegisterFlagCompletionFunc("digest",
		cobra.FixedCompletions(lkm.DefaultDigests().Algorithms(), cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddCommand(signCmd)
}

func signCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()
	log := logr.FromContextOrDiscard(ctx)

	keyData, err := loadKeySet(ctx, signArgs.keySet, rootConfig.SigningKeySet, sigPrivateKeySetEnvVar)
	if err != nil {
		return err
	}

	privateKey, err := lkm.PrivateKeyFromSet(keyData)
	if err != nil {
		return err
	}

	lic, err := readLicense(ctx, args[0], signArgs.inputFormat.Format())
	if err != nil {
		return err
	}

	if _, ok := lic.LicenseID(); !ok {
		id, err := lic.NewLicenseID()
		if err != nil {
			return fmt.Errorf("failed to generate license ID: %w", err)
		}
		log.V(1).Info("license ID assigned", "licenseId", id.String())
	}

	digestAlg := signArgs.digest
	if digestAlg == "" {
		digestAlg = rootConfig.Digest
	}

	if err := lic.Sign(lkm.DefaultDigests(), privateKey, digestAlg); err != nil {
		return err
	}
	log.V(1).Info("license signed", "kid", privateKey.KeyID, "digest", digestAlg)

	if err := recordLicense(ctx, lic, privateKey.KeyID); err != nil {
		return err
	}

	if err := writeLicense(signArgs.output, lic, signArgs.outputFormat.Format()); err != nil {
		return err
	}

	if !isStdout(signArgs.output) {
		id, _ := lic.LicenseID()
		rootCmd.Printf("✔ license %s signed with key %s\n", id, privateKey.KeyID)
		rootCmd.Printf("✔ license written to: %s\n", signArgs.output)
	}
	return nil
}

// recordLicense stores the signed license in the ledger, if one is configured.
func recordLicense(ctx context.Context, lic *license.License, keyID string) error {
	dsn := signArgs.ledger
	if dsn == "" {
		dsn = rootConfig.Ledger
	}
	if dsn == "" {
		return nil
	}

	store, err := ledger.Open(dsn)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer func() { _ = store.Close() }()

	entry, err := ledger.NewEntry(lic, keyID)
	if err != nil {
		return err
	}
	if err := store.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record license: %w", err)
	}
	return nil
}
