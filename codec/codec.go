package codec

// Codec encodes cache values to []byte for storage and back.
//
// The default JSON codec carries the cache's degrade-gracefully read
// contract; alternative codecs (Msgpack, CBOR, Protobuf) trade that for
// density and are meant for callers that control both ends of the store.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}
