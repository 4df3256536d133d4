// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestEncodeValue(t *testing.T) {
	t.Run("keeps single line values", func(t *testing.T) {
		g := NewWithT(t)
		g.Expect(encodeValue("Peter Verhas")).To(Equal("Peter Verhas"))
		g.Expect(encodeValue("")).To(Equal(""))
		g.Expect(encodeValue("a<<b")).To(Equal("a<<b"))
	})

	t.Run("frames multi-line values", func(t *testing.T) {
		g := NewWithT(t)
		g.Expect(encodeValue("A\nB")).To(Equal("<<BA\nA\nB\nBA"))
	})

	t.Run("frames values starting with the heredoc prefix", func(t *testing.T) {
		g := NewWithT(t)
		g.Expect(encodeValue("<<A")).To(Equal("<<A\n<<A\nA"))
	})

	t.Run("frames values with surrounding whitespace", func(t *testing.T) {
		g := NewWithT(t)
		g.Expect(encodeValue(" padded")).To(HavePrefix("<<"))
		g.Expect(encodeValue("padded\t")).To(HavePrefix("<<"))
	})
}

func TestDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{name: "diagonal first char", lines: []string{"A license test, ", "test license"}, want: "B"},
		{name: "first prefix taken", lines: []string{"x", "A"}, want: "AA"},
		{name: "diagonal differs per line", lines: []string{"A", "B"}, want: "BA"},
		{name: "trimmed collision", lines: []string{" A"}, want: "B"},
		{name: "skips trimmed collision", lines: []string{" A", " AA", "B"}, want: "AB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			got := delimiter(tt.lines)
			g.Expect(got).To(Equal(tt.want))
			for _, line := range tt.lines {
				g.Expect(strings.TrimSpace(line)).ToNot(Equal(got))
			}
		})
	}
}

func TestMultilineRoundTrip(t *testing.T) {
	values := []string{
		"<<",
		"<<A",
		"<<B\nB",
		"A\nB",
		"A\nB\nAB\nBA\nAA\nBB\nAAA\nBBB",
		"line\n<<A\nA",
		"B\nA\nAB\nABA",
		"\n",
		"\n\n",
		"trailing\n",
		"\nleading",
		"  padded  ",
		"\ttab",
		"A license test, \ntest license",
		"key=value\nother:INT=5",
		"AB\n BA \nA\nB",
		strings.Repeat("A", 10) + "\n" + strings.Repeat("B", 10),
	}

	for _, value := range values {
		t.Run(value, func(t *testing.T) {
			g := NewWithT(t)

			f, err := NewString("value", value)
			g.Expect(err).ToNot(HaveOccurred())
			lic := New()
			_, err = lic.Add(f)
			g.Expect(err).ToNot(HaveOccurred())

			decoded, err := FromText(lic.String())
			g.Expect(err).ToNot(HaveOccurred())

			got, ok := decoded.Get("value")
			g.Expect(ok).To(BeTrue())
			s, err := got.AsString()
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(s).To(Equal(value))
		})
	}
}
