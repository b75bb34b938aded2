// Package message defines the envelope exchanged between the bridge client
// and a plugin host.
//
// An RPCMessage is serialized by the codec layer and wrapped in a protocol
// frame for transmission.
package message

import (
	"encoding/json"
	"fmt"
)

// RPCMessage carries a single action dispatch or its result.
//
//   - On request:  Plugin and Action name the target, Payload is the JSON array of arguments.
//   - On response: Payload is the JSON result, Error is the failure reason if the action failed.
type RPCMessage struct {
	Plugin  string // Plugin identifier, e.g. "TwitterPlugin"
	Action  string // Action name, e.g. "composeTweet"
	Error   string // Failure reason reported by the plugin, passed through verbatim
	Payload []byte // JSON args (request) or result (response)
}

// Target returns "Plugin.action" for logs.
func (m *RPCMessage) Target() string {
	return m.Plugin + "." + m.Action
}

// Args is the ordered positional argument list of an action.
type Args []json.RawMessage

// EncodeArgs marshals positional arguments into a request payload.
// No arguments encode as an empty array, never null.
func EncodeArgs(args ...any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	return json.Marshal(args)
}

// DecodeArgs parses a request payload. An empty payload yields no arguments.
func DecodeArgs(payload []byte) (Args, error) {
	if len(payload) == 0 {
		return Args{}, nil
	}
	var args Args
	if err := json.Unmarshal(payload, &args); err != nil {
		return nil, fmt.Errorf("decode args: %w", err)
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

// Decode unmarshals argument i into v.
func (a Args) Decode(i int, v any) error {
	if i < 0 || i >= len(a) {
		return fmt.Errorf("missing argument %d", i)
	}
	if err := json.Unmarshal(a[i], v); err != nil {
		return fmt.Errorf("argument %d: %w", i, err)
	}
	return nil
}

// String returns argument i as a string.
func (a Args) String(i int) (string, error) {
	var s string
	if err := a.Decode(i, &s); err != nil {
		return "", err
	}
	return s, nil
}
