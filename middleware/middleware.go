// Package middleware wraps the plugin host's action handler.
//
// Middlewares compose as an onion: Chain(A, B, C)(h) runs A.before, B.before,
// C.before, h, C.after, B.after, A.after.
package middleware

import (
	"context"
	"twitter-bridge/message"
)

type HandlerFunc func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines middlewares into one, outermost first.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// failure builds an error response for req.
func failure(req *message.RPCMessage, reason string) *message.RPCMessage {
	return &message.RPCMessage{
		Plugin: req.Plugin,
		Action: req.Action,
		Error:  reason,
	}
}
