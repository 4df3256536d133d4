// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// Magic is the leading number of the license binary form.
const Magic uint32 = 0x21CE4E5E

// Serialized returns the binary form of the license:
// the magic number followed by a length-prefixed block per feature.
func (l *License) Serialized() []byte {
	return l.serialize()
}

// Unsigned returns the binary form of the license without its signature.
// This is the input of the digest when signing and verifying.
func (l *License) Unsigned() []byte {
	return l.serialize(SignatureFeature)
}

func (l *License) serialize(excluded ...string) []byte {
	b := binary.BigEndian.AppendUint32(nil, Magic)
	for _, f := range l.featuresExcept(excluded...) {
		fb := f.serialize()
		b = binary.BigEndian.AppendUint32(b, uint32(len(fb)))
		b = append(b, fb...)
	}
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (l *License) MarshalBinary() ([]byte, error) {
	return l.Serialized(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// On error the license is left unchanged.
func (l *License) UnmarshalBinary(data []byte) error {
	decoded, err := FromBinary(data)
	if err != nil {
		return err
	}
	l.features = decoded.features
	return nil
}

// FromBinary decodes a license from its binary form. The whole input
// must be consumed; on any error no license is returned.
func FromBinary(data []byte) (*License, error) {
	if len(data) < 4 {
		return nil, corruptError(len(data), fmt.Errorf("%w: magic number needs 4 bytes, got %d", ErrTruncated, len(data)))
	}
	if magic := binary.BigEndian.Uint32(data); magic != Magic {
		return nil, corruptError(0, fmt.Errorf("%w 0x%08X", ErrInvalidMagic, magic))
	}

	lic := New()
	off := 4
	for off < len(data) {
		if len(data)-off < 4 {
			return nil, corruptError(len(data), fmt.Errorf("%w: feature length needs 4 bytes, got %d", ErrTruncated, len(data)-off))
		}
		n := uint64(binary.BigEndian.Uint32(data[off:]))
		off += 4
		if n > uint64(len(data)-off) {
			return nil, corruptError(len(data), fmt.Errorf("%w: feature needs %d bytes, got %d", ErrTruncated, n, len(data)-off))
		}

		f, err := decodeFeature(data[off:off+int(n)], off)
		if err != nil {
			return nil, err
		}
		if _, err := lic.Add(f); err != nil {
			return nil, corruptError(off, err)
		}
		off += int(n)
	}
	return lic, nil
}

// Base64 returns the standard base64 encoding of the binary form.
func (l *License) Base64() string {
	return base64.StdEncoding.EncodeToString(l.Serialized())
}

// FromBase64 decodes a license from the base64 encoding of its binary form.
// Surrounding whitespace and line breaks are ignored.
func FromBase64(text string) (*License, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, text)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %w", ErrCorruptFormat, err)
	}
	return FromBinary(data)
}
