// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
)

var showCmd = &cobra.Command{
	Use:   "show [LICENSE]",
	Short: "Print the features of a license",
	Example: `  # Print a base64 license in text format
  license-kit show license.b64

  # List the features of a license as a table
  license-kit show license.txt -o table

  # Print a license read from stdin as YAML
  cat license.bin | license-kit show - -o yaml
`,
	Args: cobra.ExactArgs(1),
	RunE: showCmdRun,
}

type showFlags struct {
	inputFormat formatFlag
	output      string
}

var showArgs = showFlags{
	output: "text",
}

var showOutputs = []string{"text", "json", "yaml", "table"}

func init() {
	showCmd.Flags().Var(&showArgs.inputFormat, "input-format", formatFlagUsage("input")+", detected when not set")
	showCmd.Flags().StringVarP(&showArgs.output, "output", "o", showArgs.output,
		"output format, one of: "+strings.Join(showOutputs, ", "))
	_ = showCmd.RegisterFlagCompletionFunc("input-format", formatCompletionFunc)
	_ = showCmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(showOutputs, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddCommand(showCmd)
}

func showCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	lic, err := readLicense(ctx, args[0], showArgs.inputFormat.Format())
	if err != nil {
		return err
	}

	switch showArgs.output {
	case "text":
		rootCmd.Print(lic.String())
	case "json":
		data, err := license.Encode(lic, license.FormatJSON)
		if err != nil {
			return err
		}
		rootCmd.Println(string(data))
	case "yaml":
		data, err := lic.MarshalJSON()
		if err != nil {
			return err
		}
		yamlData, err := yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to convert license to YAML: %w", err)
		}
		rootCmd.Print(string(yamlData))
	case "table":
		rows := make([][]string, 0, lic.Len())
		for _, f := range lic.Features() {
			rows = append(rows, []string{f.Name(), f.Type().String(), tableValue(f)})
		}
		printTable(rootCmd.OutOrStdout(), []string{"name", "type", "value"}, rows)
	default:
		return fmt.Errorf("unsupported output format %q, supported formats: %s",
			showArgs.output, strings.Join(showOutputs, ", "))
	}

	return nil
}

// tableValue returns the feature value on a single line.
func tableValue(f *license.Feature) string {
	if f.Is(license.Binary) {
		return base64.StdEncoding.EncodeToString(f.Bytes())
	}
	v := f.ValueString()
	if i := strings.IndexAny(v, "\r\n"); i >= 0 {
		return v[:i] + "..."
	}
	return v
}
