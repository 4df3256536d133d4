// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"fmt"
	"io"
	"strings"
)

// Format names an encoded form of a License.
type Format string

const (
	// FormatBinary is the binary wire form.
	FormatBinary Format = "binary"
	// FormatBase64 is the base64 transport form, followed by a newline.
	FormatBase64 Format = "base64"
	// FormatText is the canonical text form.
	FormatText Format = "text"
	// FormatJSON is the JSON object form.
	FormatJSON Format = "json"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatBinary, FormatBase64, FormatText, FormatJSON}
}

// ParseFormat returns the Format with the given name, ignoring case.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(string(f), strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w %q, must be one of %v", ErrUnknownFormat, name, Formats())
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// Decode decodes a license from data in the given format.
func Decode(data []byte, f Format) (*License, error) {
	switch f {
	case FormatBinary:
		return FromBinary(data)
	case FormatBase64:
		return FromBase64(string(data))
	case FormatText:
		return FromText(string(data))
	case FormatJSON:
		return FromJSON(data)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
}

// Encode returns the license encoded in the given format.
func Encode(l *License, f Format) ([]byte, error) {
	switch f {
	case FormatBinary:
		return l.Serialized(), nil
	case FormatBase64:
		return []byte(l.Base64() + "\n"), nil
	case FormatText:
		return []byte(l.String()), nil
	case FormatJSON:
		return l.MarshalJSON()
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
}

// Read reads r to the end and decodes a license in the given format.
func Read(r io.Reader, f Format) (*License, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read license: %w", err)
	}
	return Decode(data, f)
}

// Write encodes the license in the given format and writes it to w.
func Write(w io.Writer, l *License, f Format) error {
	data, err := Encode(l, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write license: %w", err)
	}
	return nil
}
