// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"
	"sigs.k8s.io/yaml"
)

var diffCmd = &cobra.Command{
	Use:   "diff <source> <target>",
	Short: "Diff two licenses and generate a JSON patch",
	Long: `The diff command compares two licenses and produces a JSON patch (RFC 6902)
that can be applied to the JSON form of the source license to obtain the target license.

The source and target can be in any license format and can be local file paths
or HTTPS URLs.`,
	Example: `  # Diff two licenses (default YAML output)
  license-kit diff license-v1.txt license-v2.b64

  # Diff with JSON patch output
  license-kit diff license-v1.txt license-v2.txt --output=json-patch`,
	Args: cobra.ExactArgs(2),
	RunE: diffCmdRun,
}

type diffFlags struct {
	output string
}

var diffArgs = diffFlags{
	output: "json-patch-yaml",
}

func init() {
	diffCmd.Flags().StringVarP(&diffArgs.output, "output", "o", diffArgs.output,
		"Output format for the diff result. Supported formats: json-patch-yaml, json-patch.")
	_ = diffCmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"json-patch-yaml", "json-patch"}, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddCommand(diffCmd)
}

func diffCmdRun(cmd *cobra.Command, args []string) error {
	if diffArgs.output != "json-patch-yaml" && diffArgs.output != "json-patch" {
		return fmt.Errorf("unsupported output format %q, supported formats: json-patch-yaml, json-patch", diffArgs.output)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rootArgs.timeout)
	defer cancel()

	source, err := readLicense(ctx, args[0], "")
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	target, err := readLicense(ctx, args[1], "")
	if err != nil {
		return fmt.Errorf("reading target: %w", err)
	}

	sourceJSON, err := source.MarshalJSON()
	if err != nil {
		return err
	}
	targetJSON, err := target.MarshalJSON()
	if err != nil {
		return err
	}

	patch, err := jsondiff.CompareJSON(sourceJSON, targetJSON, jsondiff.Rationalize())
	if err != nil {
		return fmt.Errorf("computing diff: %w", err)
	}

	switch diffArgs.output {
	case "json-patch":
		patchJSON, err := json.MarshalIndent(patch, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling patch: %w", err)
		}
		rootCmd.Println(string(patchJSON))
	case "json-patch-yaml":
		patchYAML, err := yaml.Marshal(patch)
		if err != nil {
			return fmt.Errorf("marshalling patch: %w", err)
		}
		rootCmd.Print(string(patchYAML))
	}

	return nil
}
