package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Protobuf serializes proto.Message values. Decode needs a concrete message
// to unmarshal into, so the codec is constructed with a message constructor
// (e.g. func() proto.Message { return &mypb.User{} }).
type Protobuf struct {
	new func() proto.Message
}

var _ Codec = Protobuf{}

func NewProtobuf(ctor func() proto.Message) Protobuf {
	return Protobuf{new: ctor}
}

func (c Protobuf) Encode(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("protobuf codec: %T is not a proto.Message", v)
	}
	return proto.Marshal(m)
}

func (c Protobuf) Decode(b []byte) (any, error) {
	m := c.new()
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, err
	}
	return m, nil
}
