// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/controlplaneio-fluxcd/license-kit/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the ledger of issued licenses",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the licenses recorded in the ledger",
	Example: `  # List the issued licenses
  license-kit ledger list --ledger=licenses.db

  # List the issued licenses as JSON
  license-kit ledger list --ledger=licenses.db -o json
`,
	Args: cobra.NoArgs,
	RunE: ledgerListCmdRun,
}

var ledgerGetCmd = &cobra.Command{
	Use:   "get [LICENSE_ID]",
	Short: "Print a license recorded in the ledger",
	Example: `  # Print an issued license in base64 format
  license-kit ledger get 1f0a3b4c-5d6e-6f70-8192-a3b4c5d6e7f8 --ledger=licenses.db --output-format=base64
`,
	Args: cobra.ExactArgs(1),
	RunE: ledgerGetCmdRun,
}

type ledgerFlags struct {
	dsn          string
	output       string
	outputFormat formatFlag
}

var ledgerArgs = ledgerFlags{
	output: "table",
}

func init() {
	ledgerCmd.PersistentFlags().StringVar(&ledgerArgs.dsn, "ledger", "",
		"SQLite DSN of the ledger, defaults to the config value")
	ledgerListCmd.Flags().StringVarP(&ledgerArgs.output, "output", "o", ledgerArgs.output,
		"output format, one of: table, json, yaml")
	ledgerGetCmd.Flags().Var(&ledgerArgs.outputFormat, "output-format", formatFlagUsage("output"))
	_ = ledgerListCmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))
	_ = ledgerGetCmd.RegisterFlagCompletionFunc("output-format", formatCompletionFunc)

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerGetCmd)
	rootCmd.AddCommand(ledgerCmd)
}

// openLedger opens the ledger named by the flag or the config.
func openLedger() (*ledger.Store, error) {
	dsn := ledgerArgs.dsn
	if dsn == "" {
		dsn = rootConfig.Ledger
	}
	if dsn == "" {
		return nil, fmt.Errorf("ledger must be specified with --ledger flag or in the config")
	}
	store, err := ledger.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return store, nil
}

func ledgerListCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	store, err := openLedger()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}

	switch ledgerArgs.output {
	case "table":
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.LicenseID,
				e.KeyID,
				e.IssuedAt.Format(time.RFC3339),
				formatOptionalTime(e.Expiry),
				formatOptionalTime(e.Revoked),
			})
		}
		printTable(rootCmd.OutOrStdout(), []string{"license id", "kid", "issued", "expires", "revoked"}, rows)
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		rootCmd.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		rootCmd.Print(string(data))
	default:
		return fmt.Errorf("unsupported output format %q, supported formats: table, json, yaml", ledgerArgs.output)
	}
	return nil
}

func ledgerGetCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	store, err := openLedger()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid license ID %q: %w", args[0], err)
	}

	entry, err := store.Get(ctx, id.String())
	if err != nil {
		return err
	}

	lic, err := entry.License()
	if err != nil {
		return err
	}

	return writeLicense("-", lic, ledgerArgs.outputFormat.Format())
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
