/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: optional.go
Description: Optional identifier returned by path inference.
*/

package sniff

import (
	"encoding/json"

	"github.com/kleascm/magicsniff/pkg/detect"
)

// Optional is an identifier that may be absent
type Optional struct {
	Type    detect.Identifier
	Present bool
}

// Some wraps a present identifier
func Some(id detect.Identifier) Optional {
	return Optional{Type: id, Present: true}
}

// None is the absent value
var None = Optional{}

// Get returns the identifier and whether it is present
func (o Optional) Get() (detect.Identifier, bool) {
	return o.Type, o.Present
}

// String returns the identifier, or "" when absent
func (o Optional) String() string {
	if !o.Present {
		return ""
	}
	return o.Type.String()
}

// MarshalJSON encodes a present value as a string and an absent one as null
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Type.String())
}

// UnmarshalJSON accepts a string or null
func (o *Optional) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		*o = None
		return nil
	}
	*o = Some(detect.Identifier(*s))
	return nil
}
