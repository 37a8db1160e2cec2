package codec

import "fmt"

// Raw is an identity codec for string and []byte values: bytes go in and
// come back out as a string, with no JSON attempt on read. Useful when the
// cache only ever holds opaque text and the raw-string fallback heuristics
// of JSON are unwanted.
type Raw struct{}

var _ Codec = Raw{}

func (Raw) Encode(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return []byte(NilMarker), nil
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	}
	return nil, fmt.Errorf("raw codec: unsupported type %T", v)
}

func (Raw) Decode(b []byte) (any, error) {
	if string(b) == NilMarker {
		return nil, nil
	}
	return string(b), nil
}
