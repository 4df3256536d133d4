// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInteger parses a decimal or 0x prefixed hexadecimal integer literal
// into a signed integer of the given bit size (8, 16, 32 or 64).
//
// Literals above the signed maximum are accepted when they are the unsigned
// bit pattern of a value of that size, e.g. "0xFF" parses to -1 for 8 bits.
// Any other value outside the signed range is rejected.
func ParseInteger(text string, bits int) (int64, error) {
	switch bits {
	case 8, 16, 32, 64:
	default:
		return 0, fmt.Errorf("unsupported integer size %d", bits)
	}

	s := strings.TrimSpace(text)
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}

	invalid := fmt.Errorf("%w: %q is not a %d-bit integer", ErrInvalidLiteral, text, bits)
	if s == "" || strings.ContainsAny(s, "+-_") {
		return 0, invalid
	}

	u, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, invalid
	}

	maxValue := uint64(1)<<(bits-1) - 1
	if negative {
		if u > maxValue+1 {
			return 0, invalid
		}
		return -int64(u), nil
	}

	switch {
	case u <= maxValue:
		return int64(u), nil
	case u <= 2*maxValue+1:
		// Unsigned bit pattern, folded back into the signed range.
		// The subtraction wraps around for 64 bits.
		return int64(u - (2*maxValue + 2)), nil
	default:
		return 0, invalid
	}
}
