// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"fmt"
	"strings"
)

// String returns the canonical text form of the license:
// one record per feature ordered by name, each line ending in '\n'.
func (l *License) String() string {
	var sb strings.Builder
	for _, f := range l.Features() {
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (l *License) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// On error the license is left unchanged.
func (l *License) UnmarshalText(text []byte) error {
	decoded, err := FromText(string(text))
	if err != nil {
		return err
	}
	l.features = decoded.features
	return nil
}

// FromText decodes a license from its text form. The grammar accepts
// whitespace around names, types, '=' and values, blank lines, and
// '\r\n' line endings. A record without a type is a String.
func FromText(text string) (*License, error) {
	records, err := decodeText(text)
	if err != nil {
		return nil, err
	}
	lic := New()
	for _, r := range records {
		if _, err := lic.Add(r.feature); err != nil {
			return nil, parseError(r.line, err)
		}
	}
	return lic, nil
}

type textRecord struct {
	feature *Feature
	line    int
}

// lineReader iterates over the lines of a text with their
// 1-based numbers, dropping the '\n' terminators. A '\r' before
// the terminator is kept for framed values to read verbatim.
type lineReader struct {
	rest string
	n    int
	done bool
}

func (r *lineReader) next() (string, bool) {
	if r.done {
		return "", false
	}
	line, rest, found := strings.Cut(r.rest, "\n")
	if !found {
		r.done = true
		if line == "" {
			return "", false
		}
	}
	r.rest = rest
	r.n++
	return line, true
}

func decodeText(text string) ([]textRecord, error) {
	var records []textRecord
	lr := &lineReader{rest: text}
	for {
		line, ok := lr.next()
		if !ok {
			return records, nil
		}
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		start := lr.n

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, parseError(start, fmt.Errorf("%w in %q", ErrMissingSeparator, line))
		}
		name, typ, err := splitKey(key)
		if err != nil {
			return nil, parseError(start, err)
		}

		value = strings.TrimSpace(value)
		if strings.HasPrefix(value, heredocPrefix) {
			value, err = readFramed(lr, strings.TrimSpace(value[len(heredocPrefix):]))
			if err != nil {
				return nil, parseError(start, err)
			}
		}

		f, err := ParseFeatureValue(name, typ, value)
		if err != nil {
			return nil, parseError(start, err)
		}
		records = append(records, textRecord{feature: f, line: start})
	}
}

// splitKey splits `name[:TYPE]` at the last ':'.
func splitKey(key string) (string, Type, error) {
	key = strings.TrimSpace(key)
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return key, String, nil
	}
	typ, err := ParseType(key[i+1:])
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(key[:i]), typ, nil
}

// readFramed collects the lines up to the delimiter line and joins them.
// Content lines are kept as is, '\r' included.
func readFramed(lr *lineReader, delim string) (string, error) {
	var lines []string
	for {
		line, ok := lr.next()
		if !ok {
			return "", fmt.Errorf("%w: delimiter %q not found", ErrUnterminatedValue, delim)
		}
		if strings.TrimSpace(line) == delim {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
}
