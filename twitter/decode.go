package twitter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeFlag reads the boolean-like answers of the availability checks. The
// plugin may send true/false, 1/0, "1"/"0" or nothing. Reaching the success
// callback with no value means yes, and an empty string or null is read as
// no value.
func decodeFlag(action string, raw json.RawMessage) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return true, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("%s: decode result: %w", action, err)
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		switch t {
		case "1", "true", "OK", "ok", "":
			return true, nil
		case "0", "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("%s: unexpected result %s", action, raw)
}

// decodeTweets accepts a bare array or a search envelope {"statuses": [...]}.
func decodeTweets(action string, raw json.RawMessage) ([]Tweet, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Tweet{}, nil
	}

	if raw[0] == '{' {
		var envelope struct {
			Statuses []Tweet `json:"statuses"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("%s: decode result: %w", action, err)
		}
		if envelope.Statuses == nil {
			envelope.Statuses = []Tweet{}
		}
		return envelope.Statuses, nil
	}

	var tweets []Tweet
	if err := json.Unmarshal(raw, &tweets); err != nil {
		return nil, fmt.Errorf("%s: decode result: %w", action, err)
	}
	return tweets, nil
}
