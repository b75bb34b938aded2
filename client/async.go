package client

import (
	"context"
	"encoding/json"
)

// SuccessFunc receives the raw result of an action.
type SuccessFunc func(result json.RawMessage)

// FailureFunc receives the failure reason of an action, unmodified.
type FailureFunc func(reason string)

// ExecAsync dispatches an action and reports through a callback pair.
//
// It returns immediately. Exactly one of success or failure runs, once, on
// another goroutine; either may be nil.
func (c *Client) ExecAsync(success SuccessFunc, failure FailureFunc, plugin, action string, args ...any) {
	go func() {
		result, err := c.Exec(context.Background(), plugin, action, args...)
		if err != nil {
			if failure != nil {
				failure(Reason(err))
			}
			return
		}
		if success != nil {
			success(result)
		}
	}()
}
