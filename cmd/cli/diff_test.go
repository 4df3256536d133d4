// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestDiffCmd(t *testing.T) {
	source := "owner=ACME\nseats:INT=10\nedition=standard\n"
	target := "owner=ACME\nseats:INT=20\nregion=eu\n"

	t.Run("prints a YAML patch", func(t *testing.T) {
		g := NewWithT(t)
		sourcePath := writeFile(t, "source.txt", source)
		targetPath := writeFile(t, "target.txt", target)

		output, err := executeCommand([]string{"diff", sourcePath, targetPath})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("op: replace"))
		g.Expect(output).To(ContainSubstring("path: /seats/value"))
		g.Expect(output).To(ContainSubstring("op: remove"))
		g.Expect(output).To(ContainSubstring("path: /edition"))
		g.Expect(output).To(ContainSubstring("op: add"))
		g.Expect(output).To(ContainSubstring("path: /region"))
	})

	t.Run("prints a JSON patch across formats", func(t *testing.T) {
		g := NewWithT(t)
		sourcePath := writeFile(t, "source.txt", source)
		targetText := writeFile(t, "target.txt", target)
		targetJSON := writeFile(t, "target.json", "")

		_, err := executeCommand([]string{"convert", targetText, "--output-format=json", "-o", targetJSON})
		g.Expect(err).ToNot(HaveOccurred())

		output, err := executeCommand([]string{"diff", sourcePath, targetJSON, "-o", "json-patch"})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring(`"op": "replace"`))
		g.Expect(output).To(ContainSubstring(`"path": "/seats/value"`))
		g.Expect(output).To(ContainSubstring(`"value": "20"`))
	})

	t.Run("prints an empty patch for equal licenses", func(t *testing.T) {
		g := NewWithT(t)
		sourcePath := writeFile(t, "source.txt", source)

		output, err := executeCommand([]string{"diff", sourcePath, sourcePath, "-o", "json-patch"})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).ToNot(ContainSubstring(`"op"`))
	})

	t.Run("fails with unsupported output", func(t *testing.T) {
		g := NewWithT(t)

		_, err := executeCommand([]string{"diff", "a.txt", "b.txt", "-o", "unified"})
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("unsupported output format"))
	})
}
