package codec

import (
	"errors"
	"testing"
	"twitter-bridge/message"
)

func roundTrip(t *testing.T, cdc Codec, original *message.RPCMessage) {
	t.Helper()

	data, err := cdc.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded message.RPCMessage
	if err := cdc.Decode(data, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if original.Plugin != decoded.Plugin {
		t.Errorf("Plugin mismatch: got %s, want %s", decoded.Plugin, original.Plugin)
	}
	if original.Action != decoded.Action {
		t.Errorf("Action mismatch: got %s, want %s", decoded.Action, original.Action)
	}
	if string(original.Payload) != string(decoded.Payload) {
		t.Errorf("Payload mismatch: got %s, want %s", decoded.Payload, original.Payload)
	}
	if original.Error != decoded.Error {
		t.Errorf("Error mismatch: got %s, want %s", decoded.Error, original.Error)
	}
}

func TestJSONCodec(t *testing.T) {
	roundTrip(t, &JSONCodec{}, &message.RPCMessage{
		Plugin:  "TwitterPlugin",
		Action:  "composeTweet",
		Payload: []byte(`[{"text":"hello","urlAttach":"http://x"}]`),
	})
}

func TestBinaryCodec(t *testing.T) {
	roundTrip(t, &BinaryCodec{}, &message.RPCMessage{
		Plugin:  "TwitterPlugin",
		Action:  "reTweet",
		Payload: []byte(`["123"]`),
	})
	roundTrip(t, &BinaryCodec{}, &message.RPCMessage{
		Error: "Twitter account not configured",
	})
}

func TestBinaryCodecTruncated(t *testing.T) {
	cdc := &BinaryCodec{}
	data, err := cdc.Encode(&message.RPCMessage{
		Plugin:  "TwitterPlugin",
		Action:  "getMentions",
		Payload: []byte(`[]`),
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{0, 1, 5, len(data) - 1} {
		var msg message.RPCMessage
		if err := cdc.Decode(data[:n], &msg); !errors.Is(err, ErrTruncated) {
			t.Errorf("Decode(%d bytes) = %v, want ErrTruncated", n, err)
		}
	}
}

func TestBinaryCodecRejectsOtherTypes(t *testing.T) {
	cdc := &BinaryCodec{}
	if _, err := cdc.Encode("not a message"); err == nil {
		t.Fatal("expected error encoding a non-message")
	}
}

func TestParseCodecType(t *testing.T) {
	cases := map[string]CodecType{"": CodecTypeJSON, "json": CodecTypeJSON, "binary": CodecTypeBinary}
	for name, want := range cases {
		got, err := ParseCodecType(name)
		if err != nil || got != want {
			t.Errorf("ParseCodecType(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseCodecType("xml"); err == nil {
		t.Error("expected error for unknown codec")
	}
}
