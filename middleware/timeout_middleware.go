package middleware

import (
	"context"
	"time"
	"twitter-bridge/message"
)

// ReasonTimeout is reported when an action exceeds its deadline.
const ReasonTimeout = "request timed out"

func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *message.RPCMessage, 1)
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return failure(req, ReasonTimeout)
			}
		}
	}
}
