// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"strings"
	"unicode"
)

// heredocPrefix introduces a multi-line value in the text form.
const heredocPrefix = "<<"

// needsFraming reports whether a value must be framed to survive
// the line based text form, which trims single line values.
func needsFraming(value string) bool {
	return strings.Contains(value, "\n") ||
		strings.HasPrefix(value, heredocPrefix) ||
		strings.TrimFunc(value, unicode.IsSpace) != value
}

// encodeValue returns the value unchanged when it fits on a single line,
// otherwise the value framed as `<<DELIM`, the value lines, and `DELIM`.
func encodeValue(value string) string {
	if !needsFraming(value) {
		return value
	}
	lines := strings.Split(value, "\n")
	delim := delimiter(lines)

	var sb strings.Builder
	sb.WriteString(heredocPrefix)
	sb.WriteString(delim)
	sb.WriteByte('\n')
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(delim)
	return sb.String()
}

// delimiter returns the shortest {A,B} token that does not equal any of
// the lines once trimmed. The candidate is built diagonally: its i-th
// character differs from the i-th character of the i-th line, so the
// full candidate cannot equal any untrimmed line.
func delimiter(lines []string) string {
	taken := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		taken[strings.TrimSpace(line)] = struct{}{}
	}
	free := func(s string) bool {
		_, ok := taken[s]
		return !ok
	}

	probe := make([]byte, len(lines))
	for i, line := range lines {
		if i < len(line) && line[i] == 'A' {
			probe[i] = 'B'
		} else {
			probe[i] = 'A'
		}
	}
	for n := 1; n <= len(probe); n++ {
		if candidate := string(probe[:n]); free(candidate) {
			return candidate
		}
	}

	// Trimming can defeat the diagonal, fall back to
	// enumerating tokens by increasing length.
	for n := 1; ; n++ {
		for bits := 0; bits < 1<<n; bits++ {
			candidate := make([]byte, n)
			for i := range candidate {
				candidate[i] = 'A'
				if bits&(1<<i) != 0 {
					candidate[i] = 'B'
				}
			}
			if free(string(candidate)) {
				return string(candidate)
			}
		}
	}
}
