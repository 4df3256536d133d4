// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/ledger"
	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke [LICENSE]",
	Short: "Revoke a license by adding its ID to a revocation set",
	Example: `  # Revoke a license and save to a revocation set file
  license-kit revoke license.txt --issuer=licenses.example.com -o revocations.json

  # Revoke a license and merge with the existing revocation set
  license-kit revoke license2.b64 -o revocations.json

  # Revoke a license and mark it as revoked in the issuance ledger
  license-kit revoke license.txt -o revocations.json --ledger=licenses.db
`,
	Args: cobra.ExactArgs(1),
	RunE: revokeCmdRun,
}

type revokeFlags struct {
	inputFormat formatFlag
	issuer      string
	output      string
	ledger      string
}

var revokeArgs revokeFlags

func init() {
	revokeCmd.Flags().Var(&revokeArgs.inputFormat, "input-format", formatFlagUsage("input")+", detected when not set")
	revokeCmd.Flags().StringVar(&revokeArgs.issuer, "issuer", "",
		"issuer of the revocation set, defaults to the config value or the issuer of the existing file")
	revokeCmd.Flags().StringVarP(&revokeArgs.output, "output", "o", "",
		"path to output revocation set file (required)")
	revokeCmd.Flags().StringVar(&revokeArgs.ledger, "ledger", "",
		"SQLite DSN of the ledger where the license is marked as revoked")
	_ = revokeCmd.RegisterFlagCompletionFunc("input-format", formatCompletionFunc)

	rootCmd.AddCommand(revokeCmd)
}

func revokeCmdRun(cmd *cobra.Command, args []string) error {
	if revokeArgs.output == "" {
		return fmt.Errorf("--output flag is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	lic, err := readLicense(ctx, args[0], revokeArgs.inputFormat.Format())
	if err != nil {
		return err
	}

	issuer, err := revocationIssuer(revokeArgs.output)
	if err != nil {
		return err
	}

	rks := lkm.NewRevocationKeySet(issuer)
	if err := rks.AddLicense(lic); err != nil {
		return fmt.Errorf("failed to add license to revocation set: %w", err)
	}

	if err := rks.WriteFile(revokeArgs.output); err != nil {
		return fmt.Errorf("failed to write revocation set: %w", err)
	}

	id, _ := lic.LicenseID()
	if err := markRevoked(ctx, id.String(), time.Unix(rks.Keys[id.String()], 0)); err != nil {
		return err
	}

	rootCmd.Println(fmt.Sprintf("✔ license %s revoked and saved to: %s", id, revokeArgs.output))
	return nil
}

// revocationIssuer returns the issuer from the flag, the config,
// or the revocation set file at path, in this order.
func revocationIssuer(path string) (string, error) {
	if revokeArgs.issuer != "" {
		return revokeArgs.issuer, nil
	}
	if rootConfig.Issuer != "" {
		return rootConfig.Issuer, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("issuer is required when creating a new revocation set")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read revocation set: %w", err)
	}
	rks, err := lkm.RevocationKeySetFromJSON(data)
	if err != nil {
		return "", err
	}
	return rks.Issuer, nil
}

// markRevoked records the revocation in the ledger, if one is configured.
func markRevoked(ctx context.Context, licenseID string, at time.Time) error {
	dsn := revokeArgs.ledger
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

	if err := store.MarkRevoked(ctx, licenseID, at); err != nil {
		return fmt.Errorf("failed to mark license %s as revoked: %w", licenseID, err)
	}
	return nil
}
