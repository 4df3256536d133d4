// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestCompletionCmd(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			g := NewWithT(t)

			output, err := executeCommand([]string{"completion", shell})
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(output).To(ContainSubstring("license-kit"))
		})
	}

	t.Run("completes format flags", func(t *testing.T) {
		g := NewWithT(t)

		output, err := executeCommand([]string{"__complete", "convert", "license.txt", "--output-format", "b"})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("binary"))
		g.Expect(output).To(ContainSubstring("base64"))
		g.Expect(output).ToNot(ContainSubstring("json"))
	})
}
