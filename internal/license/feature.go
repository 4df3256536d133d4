// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Feature is an immutable, typed, named value of a License.
// The value is stored in the canonical binary layout of its type.
type Feature struct {
	name  string
	typ   Type
	value []byte
}

func newFeature(name string, typ Type, value []byte) (*Feature, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Feature{name: name, typ: typ, value: value}, nil
}

// validateName rejects names that cannot survive the text form:
// empty names, names with surrounding whitespace, and names
// containing '=' or line breaks.
func validateName(name string) error {
	switch {
	case name == "":
		return valueError(fmt.Errorf("%w: name cannot be empty", ErrInvalidName))
	case !utf8.ValidString(name):
		return valueError(fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidName, name))
	case strings.ContainsAny(name, "=\r\n"):
		return valueError(fmt.Errorf("%w: %q contains '=' or a line break", ErrInvalidName, name))
	case strings.TrimFunc(name, unicode.IsSpace) != name:
		return valueError(fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidName, name))
	}
	return nil
}

func nilValueError(name string) error {
	return valueError(fmt.Errorf("%w: feature %q", ErrNilValue, name))
}

// NewBinary returns a Binary feature holding a copy of value.
func NewBinary(name string, value []byte) (*Feature, error) {
	if value == nil {
		return nil, nilValueError(name)
	}
	return newFeature(name, Binary, bytes.Clone(value))
}

// NewString returns a String feature.
func NewString(name, value string) (*Feature, error) {
	return newFeature(name, String, []byte(value))
}

// NewByte returns a Byte feature.
func NewByte(name string, value int8) (*Feature, error) {
	return newFeature(name, Byte, []byte{byte(value)})
}

// NewShort returns a Short feature.
func NewShort(name string, value int16) (*Feature, error) {
	return newFeature(name, Short, binary.BigEndian.AppendUint16(nil, uint16(value)))
}

// NewInt returns an Int feature.
func NewInt(name string, value int32) (*Feature, error) {
	return newFeature(name, Int, binary.BigEndian.AppendUint32(nil, uint32(value)))
}

// NewLong returns a Long feature.
func NewLong(name string, value int64) (*Feature, error) {
	return newFeature(name, Long, binary.BigEndian.AppendUint64(nil, uint64(value)))
}

// NewFloat returns a Float feature.
func NewFloat(name string, value float32) (*Feature, error) {
	return newFeature(name, Float, binary.BigEndian.AppendUint32(nil, math.Float32bits(value)))
}

// NewDouble returns a Double feature.
func NewDouble(name string, value float64) (*Feature, error) {
	return newFeature(name, Double, binary.BigEndian.AppendUint64(nil, math.Float64bits(value)))
}

// NewBigInteger returns a BigInteger feature.
func NewBigInteger(name string, value *big.Int) (*Feature, error) {
	if value == nil {
		return nil, nilValueError(name)
	}
	return newFeature(name, BigInteger, twosComplement(value))
}

// NewBigDecimal returns a BigDecimal feature.
func NewBigDecimal(name string, value Decimal) (*Feature, error) {
	if value.Unscaled == nil {
		return nil, nilValueError(name)
	}
	b := twosComplement(value.Unscaled)
	return newFeature(name, BigDecimal, binary.BigEndian.AppendUint32(b, uint32(value.Scale)))
}

// NewDate returns a Date feature. The time is truncated to milliseconds.
func NewDate(name string, value time.Time) (*Feature, error) {
	return newFeature(name, Date, binary.BigEndian.AppendUint64(nil, uint64(value.UnixMilli())))
}

// NewUUID returns a UUID feature.
func NewUUID(name string, value uuid.UUID) (*Feature, error) {
	// The least significant half is stored first.
	b := make([]byte, 0, 16)
	b = append(b, value[8:]...)
	b = append(b, value[:8]...)
	return newFeature(name, UUID, b)
}

// Name returns the feature name.
func (f *Feature) Name() string {
	return f.name
}

// Type returns the feature type.
func (f *Feature) Type() Type {
	return f.typ
}

// Bytes returns a copy of the value in the binary layout of the feature type.
func (f *Feature) Bytes() []byte {
	return bytes.Clone(f.value)
}

// Is reports whether the feature has the given type.
func (f *Feature) Is(t Type) bool {
	return f.typ == t
}

// Equal reports whether f and o have the same name, type and value.
func (f *Feature) Equal(o *Feature) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.name == o.name && f.typ == o.typ && bytes.Equal(f.value, o.value)
}

func (f *Feature) expect(t Type) error {
	if f.typ != t {
		return valueError(fmt.Errorf("%w: feature %q is %s, not %s", ErrTypeMismatch, f.name, f.typ, t))
	}
	return nil
}

// AsBinary returns a copy of the value of a Binary feature.
func (f *Feature) AsBinary() ([]byte, error) {
	if err := f.expect(Binary); err != nil {
		return nil, err
	}
	return bytes.Clone(f.value), nil
}

// AsString returns the value of a String feature.
func (f *Feature) AsString() (string, error) {
	if err := f.expect(String); err != nil {
		return "", err
	}
	return string(f.value), nil
}

// AsByte returns the value of a Byte feature.
func (f *Feature) AsByte() (int8, error) {
	if err := f.expect(Byte); err != nil {
		return 0, err
	}
	return int8(f.value[0]), nil
}

// AsShort returns the value of a Short feature.
func (f *Feature) AsShort() (int16, error) {
	if err := f.expect(Short); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(f.value)), nil
}

// AsInt returns the value of an Int feature.
func (f *Feature) AsInt() (int32, error) {
	if err := f.expect(Int); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(f.value)), nil
}

// AsLong returns the value of a Long feature.
func (f *Feature) AsLong() (int64, error) {
	if err := f.expect(Long); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(f.value)), nil
}

// AsFloat returns the value of a Float feature.
func (f *Feature) AsFloat() (float32, error) {
	if err := f.expect(Float); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(f.value)), nil
}

// AsDouble returns the value of a Double feature.
func (f *Feature) AsDouble() (float64, error) {
	if err := f.expect(Double); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(f.value)), nil
}

// AsBigInteger returns the value of a BigInteger feature.
func (f *Feature) AsBigInteger() (*big.Int, error) {
	if err := f.expect(BigInteger); err != nil {
		return nil, err
	}
	return fromTwosComplement(f.value), nil
}

// AsBigDecimal returns the value of a BigDecimal feature.
func (f *Feature) AsBigDecimal() (Decimal, error) {
	if err := f.expect(BigDecimal); err != nil {
		return Decimal{}, err
	}
	n := len(f.value) - 4
	return Decimal{
		Unscaled: fromTwosComplement(f.value[:n]),
		Scale:    int32(binary.BigEndian.Uint32(f.value[n:])),
	}, nil
}

// AsDate returns the value of a Date feature in UTC.
func (f *Feature) AsDate() (time.Time, error) {
	if err := f.expect(Date); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(binary.BigEndian.Uint64(f.value))).UTC(), nil
}

// AsUUID returns the value of a UUID feature.
func (f *Feature) AsUUID() (uuid.UUID, error) {
	if err := f.expect(UUID); err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	copy(id[:8], f.value[8:])
	copy(id[8:], f.value[:8])
	return id, nil
}

// MarshalBinary encodes the feature as
// type(4) nameLen(4) [valueLen(4)] name value,
// where valueLen is present only for variable length types.
func (f *Feature) MarshalBinary() ([]byte, error) {
	return f.serialize(), nil
}

func (f *Feature) serialize() []byte {
	name := []byte(f.name)
	b := make([]byte, 0, 12+len(name)+len(f.value))
	b = binary.BigEndian.AppendUint32(b, uint32(f.typ))
	b = binary.BigEndian.AppendUint32(b, uint32(len(name)))
	if f.typ.Width() == VariableLength {
		b = binary.BigEndian.AppendUint32(b, uint32(len(f.value)))
	}
	b = append(b, name...)
	return append(b, f.value...)
}

// FeatureFromBytes decodes a feature from its binary form.
// The data must hold exactly one feature.
func FeatureFromBytes(data []byte) (*Feature, error) {
	return decodeFeature(data, 0)
}

// decodeFeature decodes a feature record, reporting
// errors at offsets relative to base.
func decodeFeature(data []byte, base int) (*Feature, error) {
	if len(data) < 8 {
		return nil, corruptError(base+len(data), fmt.Errorf("%w: feature header needs 8 bytes, got %d", ErrTruncated, len(data)))
	}

	typ := Type(binary.BigEndian.Uint32(data))
	if !typ.Valid() {
		return nil, corruptError(base, fmt.Errorf("%w: tag %d", ErrUnknownType, uint32(typ)))
	}
	nameLen := uint64(binary.BigEndian.Uint32(data[4:]))

	off := 8
	var valueLen uint64
	if typ.Width() == VariableLength {
		if len(data) < 12 {
			return nil, corruptError(base+len(data), fmt.Errorf("%w: %s feature header needs 12 bytes, got %d", ErrTruncated, typ, len(data)))
		}
		valueLen = uint64(binary.BigEndian.Uint32(data[8:]))
		off = 12
		if valueLen < uint64(typ.minWidth()) {
			return nil, corruptError(base+8, fmt.Errorf("%w: %s value needs at least %d bytes, got %d", ErrLengthMismatch, typ, typ.minWidth(), valueLen))
		}
	}

	remaining := uint64(len(data) - off)
	if nameLen > remaining {
		return nil, corruptError(base+len(data), fmt.Errorf("%w: name needs %d bytes, got %d", ErrTruncated, nameLen, remaining))
	}
	remaining -= nameLen

	if typ.Width() != VariableLength {
		if remaining != uint64(typ.Width()) {
			return nil, corruptError(base+off+int(nameLen), fmt.Errorf("%w: %s value needs %d bytes, got %d", ErrLengthMismatch, typ, typ.Width(), remaining))
		}
		valueLen = remaining
	}

	switch {
	case remaining < valueLen:
		return nil, corruptError(base+len(data), fmt.Errorf("%w: value needs %d bytes, got %d", ErrTruncated, valueLen, remaining))
	case remaining > valueLen:
		return nil, corruptError(base+off+int(nameLen+valueLen), fmt.Errorf("%w: %d bytes after value", ErrTrailingBytes, remaining-valueLen))
	}

	name := string(data[off : off+int(nameLen)])
	if err := validateName(name); err != nil {
		return nil, corruptError(base+off, err)
	}
	value := bytes.Clone(data[off+int(nameLen):])
	return &Feature{name: name, typ: typ, value: value}, nil
}
