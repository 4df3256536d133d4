// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"fmt"
	"strings"
)

// Type is the closed set of feature value types.
// The numeric value of a Type is its tag in the binary wire form
// and must never be reused.
type Type uint32

const (
	// Binary holds an arbitrary byte slice.
	Binary Type = iota + 1
	// String holds UTF-8 text.
	String
	// Byte holds a signed 8-bit integer.
	Byte
	// Short holds a signed 16-bit integer.
	Short
	// Int holds a signed 32-bit integer.
	Int
	// Long holds a signed 64-bit integer.
	Long
	// Float holds an IEEE 754 single precision number.
	Float
	// Double holds an IEEE 754 double precision number.
	Double
	// BigInteger holds an arbitrary precision integer.
	BigInteger
	// BigDecimal holds an arbitrary precision decimal number.
	BigDecimal
	// Date holds a point in time with millisecond precision.
	Date
	// UUID holds a 128-bit universally unique identifier.
	UUID
)

// VariableLength is the width reported for types without a fixed width.
const VariableLength = -1

type typeInfo struct {
	name string
	// width is the fixed value width in bytes or VariableLength.
	width int
	// minWidth is the smallest valid value width of a variable length type.
	minWidth int
}

var typeInfos = map[Type]typeInfo{
	Binary:     {name: "BINARY", width: VariableLength},
	String:     {name: "STRING", width: VariableLength},
	Byte:       {name: "BYTE", width: 1},
	Short:      {name: "SHORT", width: 2},
	Int:        {name: "INT", width: 4},
	Long:       {name: "LONG", width: 8},
	Float:      {name: "FLOAT", width: 4},
	Double:     {name: "DOUBLE", width: 8},
	BigInteger: {name: "BIGINTEGER", width: VariableLength, minWidth: 1},
	BigDecimal: {name: "BIGDECIMAL", width: VariableLength, minWidth: 5},
	Date:       {name: "DATE", width: 8},
	UUID:       {name: "UUID", width: 16},
}

// Types returns every known type in tag order.
func Types() []Type {
	types := make([]Type, 0, len(typeInfos))
	for t := Binary; t <= UUID; t++ {
		types = append(types, t)
	}
	return types
}

// ParseType returns the Type with the given text name, ignoring case.
func ParseType(name string) (Type, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for t, info := range typeInfos {
		if info.name == n {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownTypeName, name)
}

// String returns the text name of the type as used in the license text form.
func (t Type) String() string {
	if info, ok := typeInfos[t]; ok {
		return info.name
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	_, ok := typeInfos[t]
	return ok
}

// Width returns the fixed value width of the type in bytes,
// or VariableLength for types whose values have no fixed width.
func (t Type) Width() int {
	if info, ok := typeInfos[t]; ok {
		return info.width
	}
	return VariableLength
}

func (t Type) minWidth() int {
	return typeInfos[t].minWidth
}
