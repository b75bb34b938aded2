package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"twitter-bridge/message"
)

func echoHandler(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
	return &message.RPCMessage{
		Plugin:  req.Plugin,
		Action:  req.Action,
		Payload: []byte("1"),
	}
}

func slowHandler(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
	time.Sleep(200 * time.Millisecond)
	return echoHandler(ctx, req)
}

func newRequest() *message.RPCMessage {
	return &message.RPCMessage{Plugin: "TwitterPlugin", Action: "isTwitterAvailable", Payload: []byte("[]")}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := LoggingMiddleware(logger)(echoHandler)

	resp := handler(context.Background(), newRequest())
	if string(resp.Payload) != "1" {
		t.Fatalf("expect payload '1', got '%s'", resp.Payload)
	}
	if !strings.Contains(buf.String(), "action=isTwitterAvailable") {
		t.Fatalf("log line missing action: %s", buf.String())
	}
}

func TestLoggingFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	failing := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		return failure(req, "no account")
	}

	resp := LoggingMiddleware(logger)(failing)(context.Background(), newRequest())
	if resp.Error != "no account" {
		t.Fatalf("reason changed: %q", resp.Error)
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("expected warn log, got %s", buf.String())
	}
}

func TestTimeoutPass(t *testing.T) {
	handler := TimeOutMiddleware(500 * time.Millisecond)(echoHandler)

	resp := handler(context.Background(), newRequest())
	if resp.Error != "" {
		t.Fatalf("expect no error, got '%s'", resp.Error)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	handler := TimeOutMiddleware(50 * time.Millisecond)(slowHandler)

	resp := handler(context.Background(), newRequest())
	if resp.Error != ReasonTimeout {
		t.Fatalf("expect timeout error, got '%s'", resp.Error)
	}
	if resp.Action != "isTwitterAvailable" {
		t.Fatalf("expect action preserved, got '%s'", resp.Action)
	}
}

func TestRateLimit(t *testing.T) {
	// 1 per second with burst 2: two pass immediately, the third is rejected.
	handler := RateLimitMiddleware(1, 2)(echoHandler)
	req := newRequest()

	for i := 0; i < 2; i++ {
		resp := handler(context.Background(), req)
		if resp.Error != "" {
			t.Fatalf("request %d should pass, got error: %s", i, resp.Error)
		}
	}

	resp := handler(context.Background(), req)
	if resp.Error != ReasonRateLimited {
		t.Fatalf("request 3 should be rate limited, got: '%s'", resp.Error)
	}
}

func TestRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	flaky := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		if calls.Add(1) < 3 {
			markRejected(ctx)
			return failure(req, ReasonRateLimited)
		}
		return echoHandler(ctx, req)
	}

	resp := RetryMiddleware(3, time.Millisecond)(flaky)(context.Background(), newRequest())
	if resp.Error != "" {
		t.Fatalf("expected success after retries, got %q", resp.Error)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	busy := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		calls.Add(1)
		markRejected(ctx)
		return failure(req, ReasonRateLimited)
	}

	resp := RetryMiddleware(2, time.Millisecond)(busy)(context.Background(), newRequest())
	if resp.Error != ReasonRateLimited {
		t.Fatalf("expected last reason, got %q", resp.Error)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 1 call + 2 retries, got %d", calls.Load())
	}
}

func TestRetryAfterRateLimit(t *testing.T) {
	var calls atomic.Int32
	counting := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		calls.Add(1)
		return echoHandler(ctx, req)
	}

	// 20 per second with burst 1: the second request waits ~50ms for a token.
	handler := Chain(RetryMiddleware(3, 100*time.Millisecond), RateLimitMiddleware(20, 1))(counting)
	for i := 0; i < 2; i++ {
		if resp := handler(context.Background(), newRequest()); resp.Error != "" {
			t.Fatalf("request %d: %q", i, resp.Error)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected the action to run twice, got %d", calls.Load())
	}
}

func TestRetrySkipsPluginReasons(t *testing.T) {
	reasons := []string{
		"Status is a duplicate.",
		"Twitter API gateway timeout after posting",
		"dial tcp: connection refused",
		ReasonRateLimited,
	}
	for _, reason := range reasons {
		var calls atomic.Int32
		denied := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			calls.Add(1)
			return failure(req, reason)
		}

		resp := RetryMiddleware(5, time.Millisecond)(denied)(context.Background(), newRequest())
		if resp.Error != reason {
			t.Fatalf("reason changed: got %q, want %q", resp.Error, reason)
		}
		if calls.Load() != 1 {
			t.Fatalf("%q: expected a single call, got %d", reason, calls.Load())
		}
	}
}

func TestRetryNeverRepeatsTimedOutAction(t *testing.T) {
	var posted atomic.Int32
	composeTweet := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		time.Sleep(30 * time.Millisecond)
		posted.Add(1)
		return echoHandler(ctx, req)
	}

	handler := Chain(RetryMiddleware(3, time.Millisecond), TimeOutMiddleware(10*time.Millisecond))(composeTweet)
	req := &message.RPCMessage{Plugin: "TwitterPlugin", Action: "composeTweet", Payload: []byte(`[{"text":"hi"}]`)}

	resp := handler(context.Background(), req)
	if resp.Error != ReasonTimeout {
		t.Fatalf("expected timeout, got %q", resp.Error)
	}

	// Let any abandoned handler finish before counting.
	time.Sleep(100 * time.Millisecond)
	if posted.Load() != 1 {
		t.Fatalf("expected the tweet to be posted once, got %d", posted.Load())
	}
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	handler := Chain(mark("a"), mark("b"), TimeOutMiddleware(500*time.Millisecond))(echoHandler)
	resp := handler(context.Background(), newRequest())
	if resp.Error != "" {
		t.Fatalf("expect no error, got '%s'", resp.Error)
	}
	if strings.Join(order, ",") != "a,b" {
		t.Fatalf("unexpected order %v", order)
	}
}
