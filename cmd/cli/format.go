// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
)

// formatFlag is a pflag.Value holding a license format.
// The zero value means the format is detected or taken from the config.
type formatFlag license.Format

var _ pflag.Value = (*formatFlag)(nil)

func (f *formatFlag) String() string {
	return string(*f)
}

func (f *formatFlag) Set(s string) error {
	v, err := license.ParseFormat(s)
	if err != nil {
		return err
	}
	*f = formatFlag(v)
	return nil
}

func (f *formatFlag) Type() string {
	return "format"
}

func (f *formatFlag) Format() license.Format {
	return license.Format(*f)
}

// formatFlagUsage returns the usage text of a format flag.
func formatFlagUsage(what string) string {
	names := make([]string, 0, len(license.Formats()))
	for _, f := range license.Formats() {
		names = append(names, f.String())
	}
	return what + " format, one of: " + strings.Join(names, ", ")
}

// formatCompletionFunc completes the license format names.
func formatCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var comps []string
	for _, f := range license.Formats() {
		if strings.HasPrefix(f.String(), toComplete) {
			comps = append(comps, f.String())
		}
	}
	return comps, cobra.ShellCompDirectiveNoFileComp
}

// detectFormat guesses the format of encoded license data.
func detectFormat(data []byte) license.Format {
	if len(data) >= 4 && binary.BigEndian.Uint32(data) == license.Magic {
		return license.FormatBinary
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return license.FormatJSON
	}
	if len(trimmed) > 0 && !bytes.ContainsAny(trimmed, " \n") {
		if _, err := license.FromBase64(string(trimmed)); err == nil {
			return license.FormatBase64
		}
	}
	return license.FormatText
}
