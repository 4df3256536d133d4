// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"errors"
	"fmt"
)

// ErrCorruptFormat is returned when binary or base64 data is not a valid license.
var ErrCorruptFormat = errors.New("corrupt license format")

// ErrInvalidMagic is returned when the data does not start with the license magic number.
var ErrInvalidMagic = errors.New("invalid magic number")

// ErrTruncated is returned when the data ends in the middle of a record.
var ErrTruncated = errors.New("unexpected end of data")

// ErrTrailingBytes is returned when a feature record is longer than its declared content.
var ErrTrailingBytes = errors.New("unexpected trailing bytes")

// ErrUnknownType is returned when a feature type tag is not known.
var ErrUnknownType = errors.New("unknown feature type")

// ErrLengthMismatch is returned when a feature value length does not fit its type.
var ErrLengthMismatch = errors.New("value length does not match feature type")

// ErrValue is returned when a feature is built from, or read as, an invalid value.
var ErrValue = errors.New("invalid feature value")

// ErrNilValue is returned when a feature is constructed from a nil value.
var ErrNilValue = errors.New("value cannot be nil")

// ErrTypeMismatch is returned when a typed accessor is called on a feature of another type.
var ErrTypeMismatch = errors.New("feature type mismatch")

// ErrInvalidName is returned when a feature name cannot be represented in every license format.
var ErrInvalidName = errors.New("invalid feature name")

// ErrReservedName is returned when a reserved feature name is used with the wrong type.
var ErrReservedName = errors.New("reserved feature name")

// ErrParse is returned when the license text form cannot be parsed.
var ErrParse = errors.New("failed to parse license")

// ErrMissingSeparator is returned when a text line has no '=' separator.
var ErrMissingSeparator = errors.New("missing '=' separator")

// ErrUnknownTypeName is returned when a text line declares an unknown type.
var ErrUnknownTypeName = errors.New("unknown type name")

// ErrInvalidLiteral is returned when a text value cannot be parsed as its declared type.
var ErrInvalidLiteral = errors.New("invalid literal")

// ErrUnterminatedValue is returned when a multi-line value has no closing delimiter.
var ErrUnterminatedValue = errors.New("unterminated multi-line value")

// ErrUnknownFormat is returned when a license format name is not supported.
var ErrUnknownFormat = errors.New("unknown license format")

// ErrSignerRequired is returned when a license is signed without a signer.
var ErrSignerRequired = errors.New("signer is required")

// ErrHasherRequired is returned when a license is signed or verified without a hasher.
var ErrHasherRequired = errors.New("hasher is required")

// ErrNotSigned is returned when a license lacks the signature or the digest algorithm feature.
var ErrNotSigned = errors.New("license is not signed")

// ErrVerification is returned when the license signature does not match its content.
var ErrVerification = errors.New("license verification failed")

func corruptError(offset int, err error) error {
	return fmt.Errorf("%w at offset %d: %w", ErrCorruptFormat, offset, err)
}

func valueError(err error) error {
	return fmt.Errorf("%w: %w", ErrValue, err)
}

func parseError(line int, err error) error {
	return fmt.Errorf("%w at line %d: %w", ErrParse, line, err)
}
