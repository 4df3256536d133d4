// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Decimal is an arbitrary precision decimal number
// with the value Unscaled × 10^-Scale.
type Decimal struct {
	Unscaled *big.Int
	Scale    int32
}

// NewDecimal returns the Decimal unscaled × 10^-scale.
func NewDecimal(unscaled int64, scale int32) Decimal {
	return Decimal{Unscaled: big.NewInt(unscaled), Scale: scale}
}

// ParseDecimal parses a decimal number with an optional fraction and
// an optional exponent, e.g. "-12.50" or "1.5E+3". The scale is taken
// from the literal, so "12.50" and "12.5" are different decimals.
func ParseDecimal(text string) (Decimal, error) {
	s := strings.TrimSpace(text)
	invalid := fmt.Errorf("%w: %q is not a decimal number", ErrInvalidLiteral, text)

	mantissa, exponent := s, int64(0)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa = s[:i]
		e, err := strconv.ParseInt(s[i+1:], 10, 32)
		if err != nil {
			return Decimal{}, invalid
		}
		exponent = e
	}

	sign := ""
	switch {
	case strings.HasPrefix(mantissa, "-"):
		sign = "-"
		mantissa = mantissa[1:]
	case strings.HasPrefix(mantissa, "+"):
		mantissa = mantissa[1:]
	}

	whole, fraction, _ := strings.Cut(mantissa, ".")
	digits := whole + fraction
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return Decimal{}, invalid
	}

	unscaled, ok := new(big.Int).SetString(sign+digits, 10)
	if !ok {
		return Decimal{}, invalid
	}

	scale := int64(len(fraction)) - exponent
	if scale < math.MinInt32 || scale > math.MaxInt32 {
		return Decimal{}, fmt.Errorf("%w: %q scale out of range", ErrInvalidLiteral, text)
	}
	return Decimal{Unscaled: unscaled, Scale: int32(scale)}, nil
}

// String returns the plain decimal text of d, or the unscaled value
// followed by a positive exponent when the scale is negative.
func (d Decimal) String() string {
	if d.Unscaled == nil {
		return "<nil>"
	}
	if d.Scale < 0 {
		return fmt.Sprintf("%sE+%d", d.Unscaled.String(), -int64(d.Scale))
	}

	digits := new(big.Int).Abs(d.Unscaled).String()
	sign := ""
	if d.Unscaled.Sign() < 0 {
		sign = "-"
	}
	if d.Scale == 0 {
		return sign + digits
	}

	scale := int(d.Scale)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	point := len(digits) - scale
	return sign + digits[:point] + "." + digits[point:]
}

// Equal reports whether d and o have the same unscaled value and scale.
func (d Decimal) Equal(o Decimal) bool {
	if d.Unscaled == nil || o.Unscaled == nil {
		return d.Unscaled == o.Unscaled && d.Scale == o.Scale
	}
	return d.Scale == o.Scale && d.Unscaled.Cmp(o.Unscaled) == 0
}

// twosComplement returns the minimal big-endian two's complement
// encoding of x, always at least one byte long.
func twosComplement(x *big.Int) []byte {
	magnitude := x
	if x.Sign() < 0 {
		magnitude = new(big.Int).Not(x)
	}
	n := magnitude.BitLen()/8 + 1

	v := x
	if x.Sign() < 0 {
		v = new(big.Int).Lsh(big.NewInt(1), uint(8*n))
		v.Add(v, x)
	}
	return v.FillBytes(make([]byte, n))
}

// fromTwosComplement decodes a big-endian two's complement integer.
func fromTwosComplement(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return v
}
