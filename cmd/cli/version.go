// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
	"github.com/controlplaneio-fluxcd/license-kit/internal/lkm"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version and the supported license formats",
	Args:  cobra.NoArgs,
	RunE:  versionCmdRun,
}

type versionFlags struct {
	short bool
}

var versionArgs versionFlags

func init() {
	versionCmd.Flags().BoolVar(&versionArgs.short, "short", false,
		"If true, shows the client version only.")
	rootCmd.AddCommand(versionCmd)
}

func versionCmdRun(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(rootCmd.OutOrStdout(), "client:", VERSION)
	if err != nil {
		return fmt.Errorf("failed to print client version: %w", err)
	}

	if versionArgs.short {
		return nil
	}

	formats := make([]string, 0, len(license.Formats()))
	for _, f := range license.Formats() {
		formats = append(formats, f.String())
	}
	_, err = fmt.Fprintln(rootCmd.OutOrStdout(), "formats:", strings.Join(formats, ", "))
	if err != nil {
		return fmt.Errorf("failed to print formats: %w", err)
	}

	_, err = fmt.Fprintln(rootCmd.OutOrStdout(), "digests:", strings.Join(lkm.DefaultDigests().Algorithms(), ", "))
	if err != nil {
		return fmt.Errorf("failed to print digests: %w", err)
	}

	return nil
}
