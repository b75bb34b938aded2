package middleware

import (
	"context"
	"twitter-bridge/message"

	"golang.org/x/time/rate"
)

// ReasonRateLimited is reported when the token bucket is empty.
const ReasonRateLimited = "rate limit exceeded"

// RateLimitMiddleware rejects actions beyond r per second with the given burst.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			if !limiter.Allow() {
				markRejected(ctx)
				return failure(req, ReasonRateLimited)
			}
			return next(ctx, req)
		}
	}
}
