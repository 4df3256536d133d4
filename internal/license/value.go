// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateFormat is the layout used for Date values in the text form.
const DateFormat = "2006-01-02 15:04:05.000"

// dateLayouts lists the accepted Date layouts, most specific first.
var dateLayouts = []string{
	DateFormat,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ValueString returns the text form of the feature value,
// without any multi-line framing.
func (f *Feature) ValueString() string {
	switch f.typ {
	case Binary:
		return base64.StdEncoding.EncodeToString(f.value)
	case String:
		return string(f.value)
	case Byte:
		return fmt.Sprintf("0x%02X", f.value[0])
	case Short:
		v, _ := f.AsShort()
		return strconv.FormatInt(int64(v), 10)
	case Int:
		v, _ := f.AsInt()
		return strconv.FormatInt(int64(v), 10)
	case Long:
		v, _ := f.AsLong()
		return strconv.FormatInt(v, 10)
	case Float:
		v, _ := f.AsFloat()
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case Double:
		v, _ := f.AsDouble()
		return strconv.FormatFloat(v, 'g', -1, 64)
	case BigInteger:
		v, _ := f.AsBigInteger()
		return v.String()
	case BigDecimal:
		v, _ := f.AsBigDecimal()
		return v.String()
	case Date:
		v, _ := f.AsDate()
		return formatDate(v)
	case UUID:
		v, _ := f.AsUUID()
		return v.String()
	}
	return ""
}

// ParseFeatureValue builds a feature of the given type from the text form of its value.
// String values are taken verbatim, every other type ignores surrounding whitespace.
func ParseFeatureValue(name string, typ Type, text string) (*Feature, error) {
	if typ == String {
		return NewString(name, text)
	}

	s := strings.TrimSpace(text)
	invalid := func(err error) error {
		if err != nil {
			return fmt.Errorf("%w: feature %q: %q is not a valid %s: %w", ErrInvalidLiteral, name, s, typ, err)
		}
		return fmt.Errorf("%w: feature %q: %q is not a valid %s", ErrInvalidLiteral, name, s, typ)
	}

	switch typ {
	case Binary:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, invalid(err)
		}
		return NewBinary(name, b)
	case Byte:
		v, err := ParseInteger(s, 8)
		if err != nil {
			return nil, invalid(nil)
		}
		return NewByte(name, int8(v))
	case Short:
		v, err := ParseInteger(s, 16)
		if err != nil {
			return nil, invalid(nil)
		}
		return NewShort(name, int16(v))
	case Int:
		v, err := ParseInteger(s, 32)
		if err != nil {
			return nil, invalid(nil)
		}
		return NewInt(name, int32(v))
	case Long:
		v, err := ParseInteger(s, 64)
		if err != nil {
			return nil, invalid(nil)
		}
		return NewLong(name, v)
	case Float:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, invalid(nil)
		}
		return NewFloat(name, float32(v))
	case Double:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, invalid(nil)
		}
		return NewDouble(name, v)
	case BigInteger:
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, invalid(nil)
		}
		return NewBigInteger(name, v)
	case BigDecimal:
		v, err := ParseDecimal(s)
		if err != nil {
			return nil, invalid(nil)
		}
		return NewBigDecimal(name, v)
	case Date:
		v, err := ParseDate(s)
		if err != nil {
			return nil, invalid(nil)
		}
		return NewDate(name, v)
	case UUID:
		v, err := uuid.Parse(s)
		if err != nil {
			return nil, invalid(err)
		}
		return NewUUID(name, v)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
}

// ParseDate parses a date in one of the layouts accepted by the text form,
// from the most specific to the least specific. Dates are read in UTC.
// Years outside 0000-9999 are written in full, with a sign when negative.
func ParseDate(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if t, ok := parseWideDate(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date", ErrInvalidLiteral, text)
}

// formatDate writes t with DateFormat, spelling out years
// that do not fit in four digits.
func formatDate(t time.Time) string {
	if y := t.Year(); y < 0 || y > 9999 {
		return strconv.Itoa(y) + t.Format(DateFormat[len("2006"):])
	}
	return t.Format(DateFormat)
}

// parseWideDate reads a date whose year is negative or longer than four digits.
func parseWideDate(s string) (time.Time, bool) {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	digits, rest, found := strings.Cut(s, "-")
	if !found || (sign == "" && len(digits) <= 4) {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(sign + digits)
	if err != nil || strings.ContainsAny(digits, "+-") {
		return time.Time{}, false
	}
	// 2000 is a leap year, so February 29 parses and is checked below.
	for _, layout := range dateLayouts {
		p, err := time.ParseInLocation(layout, "2000-"+rest, time.UTC)
		if err != nil {
			continue
		}
		t := time.Date(year, p.Month(), p.Day(), p.Hour(), p.Minute(), p.Second(), p.Nanosecond(), time.UTC)
		if t.Day() != p.Day() {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// String returns the feature as a `name[:TYPE]=value` text record.
// Values that cannot be written on a single line are framed
// with a heredoc delimiter and span multiple lines.
func (f *Feature) String() string {
	return f.key() + "=" + encodeValue(f.ValueString())
}

// key returns the name and type part of the text record.
// The type is implied only for String features whose
// name cannot be mistaken for a `name:TYPE` pair.
func (f *Feature) key() string {
	if f.typ == String && !strings.Contains(f.name, ":") {
		return f.name
	}
	return f.name + ":" + f.typ.String()
}

// FeatureFromString parses a single `name[:TYPE]=value` text record.
func FeatureFromString(text string) (*Feature, error) {
	features, err := decodeText(text)
	if err != nil {
		return nil, err
	}
	if len(features) != 1 {
		return nil, fmt.Errorf("%w: expected one feature, got %d", ErrParse, len(features))
	}
	return features[0].feature, nil
}
