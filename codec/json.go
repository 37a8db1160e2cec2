package codec

import "encoding/json"

// NilMarker is the stored representation of a Go nil value. It is distinct
// from the JSON literal null so "caller cached nil" and "caller cached a
// JSON null payload" remain separate byte sequences; both decode to nil.
const NilMarker = "\x00nil\x00"

// JSON is the default codec. The zero value is ready to use.
//
// Encoding: structured values marshal to JSON; strings are stored as their
// raw bytes (their natural representation); numbers and booleans marshal to
// their natural decimal/true/false forms; nil becomes NilMarker.
//
// Decoding never fails on a non-empty payload: it attempts JSON first and
// falls back to returning the raw bytes as a string. Consequence: a stored
// string that happens to parse as JSON ("42", "true", "[1]") comes back as
// the parsed value, not the original string. That asymmetry is part of the
// contract, not a defect.
type JSON struct{}

var _ Codec = JSON{}

func (JSON) Encode(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return []byte(NilMarker), nil
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	}
	return json.Marshal(v)
}

func (JSON) Decode(b []byte) (any, error) {
	if string(b) == NilMarker {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return string(b), nil // raw-string fallback
	}
	return v, nil
}
