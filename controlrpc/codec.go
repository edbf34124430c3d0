package controlrpc

import "encoding/json"

// jsonCodec implements google.golang.org/grpc/encoding.Codec over
// encoding/json instead of protobuf wire encoding, so this service's
// plain Go request/response structs can travel over a real gRPC
// connection without a protoc-generated marshaler.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}
