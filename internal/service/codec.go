package service

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries the plain Go message structs in this package as JSON.
// It is registered under the "json" name, replacing Connect's protobuf JSON
// codec, so handlers and clients work without generated code.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// WithJSON selects the JSON codec for a handler or client.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
