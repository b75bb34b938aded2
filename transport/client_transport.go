// Package transport multiplexes concurrent action dispatches over a single
// connection to a plugin host.
//
// Each request gets its own sequence id and a pending channel. One receive
// loop reads responses and routes each to the caller waiting on its seq.
//
//	goroutine-1 ──Send(seq=1)──┐
//	goroutine-2 ──Send(seq=2)──┼──→ single conn ──→ plugin host
//	goroutine-3 ──Send(seq=3)──┘
//
//	recvLoop:  ←── response(seq=2) → pending[2] → goroutine-2 wakes up
package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"twitter-bridge/codec"
	"twitter-bridge/message"
	"twitter-bridge/protocol"
)

// HeartbeatInterval is how often an idle-or-busy transport probes the host.
const HeartbeatInterval = 30 * time.Second

// ErrClosed is returned by Send once the connection is gone.
var ErrClosed = errors.New("transport: connection closed")

// ClientTransport owns one multiplexed connection.
type ClientTransport struct {
	conn    net.Conn
	codec   codec.CodecType
	seq     uint32      // guarded by sending
	pending sync.Map    // map[uint32]chan *message.RPCMessage
	sending sync.Mutex  // serializes whole-frame writes
	closed  atomic.Bool // set once recvLoop exits or Close is called
	done    chan struct{}
	once    sync.Once
}

// NewClientTransport wraps conn and starts its receive and heartbeat loops.
func NewClientTransport(conn net.Conn, codec codec.CodecType) *ClientTransport {
	return newClientTransport(conn, codec, HeartbeatInterval)
}

func newClientTransport(conn net.Conn, codec codec.CodecType, heartbeat time.Duration) *ClientTransport {
	t := &ClientTransport{
		conn:  conn,
		codec: codec,
		done:  make(chan struct{}),
	}
	go t.recvLoop()
	go t.heartbeatLoop(heartbeat)
	return t
}

// Send writes one request and returns its seq and a channel that receives
// exactly one response. args are the action's positional arguments.
func (t *ClientTransport) Send(plugin, action string, args ...any) (uint32, <-chan *message.RPCMessage, error) {
	if t.closed.Load() {
		return 0, nil, ErrClosed
	}

	payload, err := message.EncodeArgs(args...)
	if err != nil {
		return 0, nil, err
	}

	body, err := codec.GetCodec(t.codec).Encode(&message.RPCMessage{
		Plugin:  plugin,
		Action:  action,
		Payload: payload,
	})
	if err != nil {
		return 0, nil, err
	}

	t.sending.Lock()
	defer t.sending.Unlock()

	t.seq++
	seq := t.seq

	header := protocol.Header{
		CodecType: byte(t.codec),
		MsgType:   protocol.MsgTypeRequest,
		Seq:       seq,
	}

	// Register before writing so a fast response cannot beat us to the map.
	respChan := make(chan *message.RPCMessage, 1)
	t.pending.Store(seq, respChan)

	// shutdown may have drained pending just before the Store above.
	if t.closed.Load() {
		if _, ok := t.pending.LoadAndDelete(seq); ok {
			return 0, nil, ErrClosed
		}
		return seq, respChan, nil
	}

	if err := protocol.Encode(t.conn, &header, body); err != nil {
		t.pending.Delete(seq)
		return 0, nil, err
	}

	return seq, respChan, nil
}

// Cancel abandons a pending request. A late response for seq is dropped.
func (t *ClientTransport) Cancel(seq uint32) {
	t.pending.Delete(seq)
}

// recvLoop is the only reader of the connection; frame boundaries depend on
// sequential reads.
func (t *ClientTransport) recvLoop() {
	for {
		header, body, err := protocol.Decode(t.conn)
		if err != nil {
			t.shutdown(err)
			return
		}
		if header.MsgType != protocol.MsgTypeResponse {
			continue
		}

		resp := &message.RPCMessage{}
		if err := codec.GetCodec(codec.CodecType(header.CodecType)).Decode(body, resp); err != nil {
			resp = &message.RPCMessage{Error: "decode response: " + err.Error()}
		}

		if channel, ok := t.pending.LoadAndDelete(header.Seq); ok {
			channel.(chan *message.RPCMessage) <- resp
		}
	}
}

// shutdown marks the transport dead and fails every pending caller so none
// blocks forever.
func (t *ClientTransport) shutdown(err error) {
	t.once.Do(func() {
		t.closed.Store(true)
		close(t.done)
		t.conn.Close()
	})

	reason := ErrClosed.Error()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		reason = err.Error()
	}
	t.pending.Range(func(key, value any) bool {
		if _, ok := t.pending.LoadAndDelete(key); ok {
			value.(chan *message.RPCMessage) <- &message.RPCMessage{Error: reason}
		}
		return true
	})
}

// Closed reports whether the connection is unusable.
func (t *ClientTransport) Closed() bool {
	return t.closed.Load()
}

// Close tears down the connection and fails pending requests.
func (t *ClientTransport) Close() error {
	t.shutdown(ErrClosed)
	return nil
}

// Conn returns the underlying connection.
func (t *ClientTransport) Conn() net.Conn {
	return t.conn
}

// heartbeatLoop sends body-less heartbeat frames so hosts and middleboxes
// keep the connection open.
func (t *ClientTransport) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
		}

		header := &protocol.Header{MsgType: protocol.MsgTypeHeartbeat}
		t.sending.Lock()
		err := protocol.Encode(t.conn, header, nil)
		t.sending.Unlock()
		if err != nil {
			t.shutdown(err)
			return
		}
	}
}
