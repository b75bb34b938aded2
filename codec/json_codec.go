package codec

import (
	"encoding/json"
)

// JSONCodec serializes messages with encoding/json. Human readable on the
// wire; the Payload bytes are base64 encoded inside the envelope.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
