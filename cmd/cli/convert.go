// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [LICENSE]",
	Short: "Convert a license between the binary, base64, text and JSON formats",
	Example: `  # Convert a text license to the base64 transport form
  license-kit convert license.txt --output-format=base64 -o license.b64

  # Convert a binary license read from stdin to JSON
  cat license.bin | license-kit convert - --input-format=binary --output-format=json
`,
	Args: cobra.ExactArgs(1),
	RunE: convertCmdRun,
}

type convertFlags struct {
	inputFormat  formatFlag
	outputFormat formatFlag
	output       string
}

var convertArgs = convertFlags{
	output: "-",
}

func init() {
	convertCmd.Flags().Var(&convertArgs.inputFormat, "input-format", formatFlagUsage("input")+", detected when not set")
	convertCmd.Flags().Var(&convertArgs.outputFormat, "output-format", formatFlagUsage("output"))
	convertCmd.Flags().StringVarP(&convertArgs.output, "output", "o", convertArgs.output,
		"path to the output file, defaults to stdout")
	_ = convertCmd.RegisterFlagCompletionFunc("input-format", formatCompletionFunc)
	_ = convertCmd.RegisterFlagCompletionFunc("output-format", formatCompletionFunc)
	_ = convertCmd.MarkFlagRequired("output-format")

	rootCmd.AddCommand(convertCmd)
}

func convertCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	lic, err := readLicense(ctx, args[0], convertArgs.inputFormat.Format())
	if err != nil {
		return err
	}

	if err := writeLicense(convertArgs.output, lic, convertArgs.outputFormat.Format()); err != nil {
		return err
	}

	if !isStdout(convertArgs.output) {
		rootCmd.Println(fmt.Sprintf("✔ license written to: %s", convertArgs.output))
	}
	return nil
}
