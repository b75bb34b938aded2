// Package client is the bridge dispatcher: it resolves a plugin to a host,
// forwards (plugin, action, args) over a pooled multiplexed transport and
// hands back whatever the host answered.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"twitter-bridge/codec"
	"twitter-bridge/loadbalance"
	"twitter-bridge/registry"
	"twitter-bridge/transport"
)

// RemoteError carries a failure reason reported by the plugin host.
// Reason is exactly what the host sent.
type RemoteError struct {
	Plugin string
	Action string
	Reason string
}

func (e *RemoteError) Error() string {
	return e.Reason
}

// Reason extracts the failure reason from err: the host's reason verbatim for
// a RemoteError, err.Error() otherwise.
func Reason(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Reason
	}
	return err.Error()
}

// Client dispatches actions to plugin hosts.
type Client struct {
	registry    registry.Registry
	balancer    loadbalance.Balancer
	transports  map[string]*transportPool
	codecType   codec.CodecType
	mu          sync.Mutex
	poolSize    int
	dialTimeout time.Duration
}

// transportPool holds up to poolSize connections to one host. Calls are
// spread over the slots round robin and share each connection.
type transportPool struct {
	mu    sync.Mutex
	slots []*transport.ClientTransport
	next  atomic.Uint64
}

func NewClient(reg registry.Registry, bal loadbalance.Balancer, codecType codec.CodecType, poolSize int) *Client {
	if poolSize <= 0 {
		poolSize = 1
	}
	return &Client{
		registry:    reg,
		balancer:    bal,
		transports:  make(map[string]*transportPool),
		codecType:   codecType,
		poolSize:    poolSize,
		dialTimeout: 5 * time.Second,
	}
}

func (c *Client) dial(ctx context.Context, addr string) (*transport.ClientTransport, error) {
	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return transport.NewClientTransport(conn, c.codecType), nil
}

// getTransport returns a shared transport for addr. Slots are dialed lazily:
// on first use or after their connection died.
func (c *Client) getTransport(ctx context.Context, addr string) (*transport.ClientTransport, error) {
	c.mu.Lock()
	pool, ok := c.transports[addr]
	if !ok {
		pool = &transportPool{slots: make([]*transport.ClientTransport, c.poolSize)}
		c.transports[addr] = pool
	}
	c.mu.Unlock()

	i := int((pool.next.Add(1) - 1) % uint64(len(pool.slots)))

	pool.mu.Lock()
	defer pool.mu.Unlock()
	if t := pool.slots[i]; t != nil && !t.Closed() {
		return t, nil
	}
	t, err := c.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	pool.slots[i] = t
	return t, nil
}

// Exec dispatches one action and waits for its result.
//
// The returned payload is the host's raw JSON result. A host-side failure is
// returned as *RemoteError. Cancelling ctx stops the wait only; the host may
// still run the action.
func (c *Client) Exec(ctx context.Context, plugin, action string, args ...any) (json.RawMessage, error) {
	instances, err := c.registry.Discover(plugin)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", plugin, err)
	}

	instance, err := c.balancer.Pick(instances)
	if err != nil {
		return nil, fmt.Errorf("pick %s host: %w", plugin, err)
	}

	t, err := c.getTransport(ctx, instance.Addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", instance.Addr, err)
	}

	seq, ch, err := t.Send(plugin, action, args...)
	if err != nil {
		return nil, fmt.Errorf("send %s.%s: %w", plugin, action, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, &RemoteError{Plugin: plugin, Action: action, Reason: resp.Error}
		}
		return json.RawMessage(resp.Payload), nil
	case <-ctx.Done():
		t.Cancel(seq)
		return nil, ctx.Err()
	}
}

// Close closes every pooled connection. Calls still waiting fail with the
// transport's closed reason; later calls dial again.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, pool := range c.transports {
		pool.mu.Lock()
		for i, t := range pool.slots {
			if t != nil {
				t.Close()
			}
			pool.slots[i] = nil
		}
		pool.mu.Unlock()
		delete(c.transports, addr)
	}
	return nil
}
