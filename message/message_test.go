package message

import (
	"testing"
)

type tweetOptions struct {
	Text      string `json:"text"`
	URLAttach string `json:"urlAttach"`
}

func TestEncodeArgsEmpty(t *testing.T) {
	payload, err := EncodeArgs()
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "[]" {
		t.Fatalf("expected [], got %s", payload)
	}
}

func TestArgsRoundTrip(t *testing.T) {
	payload, err := EncodeArgs("key", tweetOptions{Text: "hello", URLAttach: "http://x"})
	if err != nil {
		t.Fatal(err)
	}

	args, err := DecodeArgs(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}

	s, err := args.String(0)
	if err != nil || s != "key" {
		t.Fatalf("String(0) = %q, %v", s, err)
	}

	var opts tweetOptions
	if err := args.Decode(1, &opts); err != nil {
		t.Fatal(err)
	}
	if opts.Text != "hello" || opts.URLAttach != "http://x" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := args.String(2); err == nil {
		t.Fatal("expected error for missing argument")
	}
	if _, err := args.String(1); err == nil {
		t.Fatal("expected error decoding an object as string")
	}
}

func TestDecodeArgsEmptyPayload(t *testing.T) {
	for _, payload := range [][]byte{nil, []byte("null")} {
		args, err := DecodeArgs(payload)
		if err != nil {
			t.Fatalf("DecodeArgs(%q): %v", payload, err)
		}
		if args == nil || len(args) != 0 {
			t.Fatalf("DecodeArgs(%q) = %v, want empty", payload, args)
		}
	}

	if _, err := DecodeArgs([]byte(`{"a":1}`)); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}

func TestTarget(t *testing.T) {
	m := &RPCMessage{Plugin: "TwitterPlugin", Action: "reTweet"}
	if m.Target() != "TwitterPlugin.reTweet" {
		t.Fatalf("unexpected target %q", m.Target())
	}
}
