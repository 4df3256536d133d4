// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package license

import (
	"encoding/json"
	"fmt"
)

// jsonFeature is the JSON form of a feature, keyed by name in the license object.
type jsonFeature struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// MarshalJSON encodes the license as an object keyed by feature name,
// with the type name and the text form of each value.
func (l *License) MarshalJSON() ([]byte, error) {
	obj := make(map[string]jsonFeature, len(l.features))
	for name, f := range l.features {
		obj[name] = jsonFeature{Type: f.typ.String(), Value: f.ValueString()}
	}
	return json.Marshal(obj)
}

// UnmarshalJSON decodes a license encoded by MarshalJSON.
// On error the license is left unchanged.
func (l *License) UnmarshalJSON(data []byte) error {
	var obj map[string]jsonFeature
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}

	decoded := New()
	for name, jf := range obj {
		typ, err := ParseType(jf.Type)
		if err != nil {
			return fmt.Errorf("%w: feature %q: %w", ErrParse, name, err)
		}
		f, err := ParseFeatureValue(name, typ, jf.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		if _, err := decoded.Add(f); err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
	}
	l.features = decoded.features
	return nil
}

// FromJSON decodes a license from its JSON form.
func FromJSON(data []byte) (*License, error) {
	lic := New()
	if err := lic.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return lic, nil
}
