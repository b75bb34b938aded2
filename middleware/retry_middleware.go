package middleware

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
	"twitter-bridge/message"

	"github.com/cenkalti/backoff/v4"
)

type rejectedKey struct{}

// markRejected records that the request was turned away before the next
// handler ran. It is a no-op outside RetryMiddleware.
func markRejected(ctx context.Context) {
	if flag, ok := ctx.Value(rejectedKey{}).(*atomic.Bool); ok {
		flag.Store(true)
	}
}

// RetryMiddleware re-runs a request that an inner middleware rejected before
// it reached the plugin, up to maxRetries times with exponential backoff
// starting at baseDelay. Every other failure, timeouts included, is final:
// the action may already have run. The last response is returned unchanged.
func RetryMiddleware(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = baseDelay
			b.RandomizationFactor = 0
			b.MaxElapsedTime = 0
			policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)

			var resp *message.RPCMessage
			attempt := 0
			_ = backoff.Retry(func() error {
				rejected := new(atomic.Bool)
				resp = next(context.WithValue(ctx, rejectedKey{}, rejected), req)
				if resp.Error == "" {
					return nil
				}
				if !rejected.Load() {
					return backoff.Permanent(errors.New(resp.Error))
				}
				attempt++
				if attempt <= maxRetries {
					slog.Debug("retrying rejected action",
						"plugin", req.Plugin,
						"action", req.Action,
						"attempt", attempt,
						"reason", resp.Error,
					)
				}
				return errors.New(resp.Error)
			}, policy)
			return resp
		}
	}
}
