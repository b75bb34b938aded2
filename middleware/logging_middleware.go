package middleware

import (
	"context"
	"log/slog"
	"time"
	"twitter-bridge/message"
)

// LoggingMiddleware logs every dispatched action with its duration.
// A nil logger uses slog.Default().
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			start := time.Now()
			resp := next(ctx, req)
			duration := time.Since(start)

			if resp.Error != "" {
				logger.Warn("action failed",
					"plugin", req.Plugin,
					"action", req.Action,
					"duration", duration,
					"reason", resp.Error,
				)
				return resp
			}
			logger.Info("action handled",
				"plugin", req.Plugin,
				"action", req.Action,
				"duration", duration,
				"result_bytes", len(resp.Payload),
			)
			return resp
		}
	}
}
