// Package server hosts bridge plugins: it accepts framed connections,
// decodes action dispatches, runs them through the middleware chain and
// writes each result back under the request's sequence id.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (single goroutine reads frames)
//	  → for each request: go handleRequest
//	    → Codec.Decode → middleware chain → dispatch (reflect.Call) → Codec.Encode → write response
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
	"twitter-bridge/codec"
	"twitter-bridge/message"
	"twitter-bridge/middleware"
	"twitter-bridge/protocol"
	"twitter-bridge/registry"
)

// Server hosts registered plugins.
type Server struct {
	mu            sync.RWMutex
	plugins       map[string]*plugin      // "TwitterPlugin" → *plugin
	listener      net.Listener
	conns         map[net.Conn]struct{}   // open connections, closed on shutdown
	wg            sync.WaitGroup          // in-flight requests
	shutdown      atomic.Bool             // set before the listener closes
	middlewares   []middleware.Middleware // applied in registration order
	handler       middleware.HandlerFunc  // middleware(...(dispatch))
	registry      registry.Registry       // nil without discovery
	advertiseAddr string                  // routable address registered for this host
	logger        *slog.Logger
}

// NewServer creates a host with no plugins.
func NewServer() *Server {
	return &Server{
		plugins: make(map[string]*plugin),
		conns:   make(map[net.Conn]struct{}),
		logger:  slog.Default(),
	}
}

// SetLogger replaces the host's logger.
func (svr *Server) SetLogger(logger *slog.Logger) {
	svr.logger = logger
}

// Register exposes rcvr under its type name.
func (svr *Server) Register(rcvr any) error {
	return svr.RegisterName("", rcvr)
}

// RegisterName exposes rcvr under the given plugin identifier.
func (svr *Server) RegisterName(name string, rcvr any) error {
	p, err := newPlugin(name, rcvr)
	if err != nil {
		return err
	}
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if _, dup := svr.plugins[p.name]; dup {
		return fmt.Errorf("bridge: plugin already registered: %s", p.name)
	}
	svr.plugins[p.name] = p
	return nil
}

// Use registers a middleware. Middlewares must be added before Serve.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// Serve listens on address and serves until Shutdown.
//
// advertiseAddr is what gets registered with reg; it differs from the listen
// address because ":7070" is not routable. A nil reg skips registration.
func (svr *Server) Serve(network, address string, advertiseAddr string, reg registry.Registry) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	return svr.ServeListener(listener, advertiseAddr, reg)
}

// ServeListener serves on an existing listener.
func (svr *Server) ServeListener(listener net.Listener, advertiseAddr string, reg registry.Registry) error {
	svr.mu.Lock()
	svr.listener = listener
	svr.advertiseAddr = advertiseAddr
	svr.registry = reg
	svr.handler = middleware.Chain(svr.middlewares...)(svr.dispatch)
	names := make([]string, 0, len(svr.plugins))
	for name := range svr.plugins {
		names = append(names, name)
	}
	svr.mu.Unlock()

	if reg != nil {
		for _, name := range names {
			err := reg.Register(name, registry.ServiceInstance{
				Addr:   advertiseAddr,
				Weight: 1,
			}, 10) // seconds; renewed by keepalive
			if err != nil {
				return fmt.Errorf("register plugin %s: %w", name, err)
			}
		}
	}

	svr.logger.Info("plugin host listening", "addr", listener.Addr().String(), "plugins", names)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		svr.trackConn(conn, true)
		go svr.handleConn(conn)
	}
}

// Addr returns the listening address, or nil before Serve.
func (svr *Server) Addr() net.Addr {
	svr.mu.RLock()
	defer svr.mu.RUnlock()
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

func (svr *Server) trackConn(conn net.Conn, add bool) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if add {
		svr.conns[conn] = struct{}{}
	} else {
		delete(svr.conns, conn)
	}
}

// handleConn reads frames sequentially and handles each request on its own
// goroutine. writeMu serializes responses on this connection.
func (svr *Server) handleConn(conn net.Conn) {
	defer func() {
		svr.trackConn(conn, false)
		conn.Close()
	}()
	writeMu := &sync.Mutex{}
	for {
		header, body, err := protocol.Decode(conn)
		if err != nil {
			if !svr.shutdown.Load() && !errors.Is(err, net.ErrClosed) {
				svr.logger.Debug("connection closed", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}

		if header.MsgType == protocol.MsgTypeHeartbeat {
			continue
		}
		if header.MsgType != protocol.MsgTypeRequest {
			svr.logger.Warn("unexpected frame type", "type", header.MsgType)
			continue
		}

		svr.wg.Add(1)
		go svr.handleRequest(header, body, conn, writeMu)
	}
}

// handleRequest decodes one request, runs the handler chain and writes the
// response. The codec layer stays outside the chain so middleware only sees
// decoded messages.
func (svr *Server) handleRequest(header *protocol.Header, body []byte, conn net.Conn, writeMu *sync.Mutex) {
	defer svr.wg.Done()

	c := codec.GetCodec(codec.CodecType(header.CodecType))
	var resp *message.RPCMessage
	msg := message.RPCMessage{}
	if err := c.Decode(body, &msg); err != nil {
		resp = &message.RPCMessage{Error: fmt.Sprintf("decode request: %v", err)}
	} else {
		resp = svr.handler(context.Background(), &msg)
	}

	result, err := c.Encode(resp)
	if err == nil && uint64(len(result)) > uint64(protocol.MaxBodyLen) {
		err = fmt.Errorf("result %w: %d bytes", protocol.ErrBodyTooLarge, len(result))
	}
	if err != nil {
		// The caller still gets exactly one reply, carrying the reason.
		svr.logger.Error("failed to encode response", "target", msg.Target(), "error", err)
		result, err = c.Encode(&message.RPCMessage{Plugin: msg.Plugin, Action: msg.Action, Error: err.Error()})
		if err != nil {
			return
		}
	}

	replyHeader := protocol.Header{
		CodecType: header.CodecType,
		MsgType:   protocol.MsgTypeResponse,
		Seq:       header.Seq,
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	if err := protocol.Encode(conn, &replyHeader, result); err != nil {
		svr.logger.Warn("failed to write response", "target", msg.Target(), "error", err)
	}
}

// Shutdown stops the host:
//  1. deregister every plugin so clients stop routing here
//  2. close the listener
//  3. wait for in-flight requests, up to timeout
//  4. close remaining connections
func (svr *Server) Shutdown(timeout time.Duration) error {
	svr.mu.RLock()
	reg, addr, listener := svr.registry, svr.advertiseAddr, svr.listener
	names := make([]string, 0, len(svr.plugins))
	for name := range svr.plugins {
		names = append(names, name)
	}
	svr.mu.RUnlock()

	if reg != nil {
		for _, name := range names {
			if err := reg.Deregister(name, addr); err != nil {
				svr.logger.Warn("failed to deregister plugin", "plugin", name, "error", err)
			}
		}
	}

	// The flag goes up first so Serve treats the Accept error as a clean exit.
	svr.shutdown.Store(true)
	if listener != nil {
		listener.Close()
	}

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-time.After(timeout):
		err = fmt.Errorf("timeout waiting for ongoing requests to finish")
	}

	svr.mu.Lock()
	for conn := range svr.conns {
		conn.Close()
	}
	svr.mu.Unlock()
	return err
}

// dispatch is the innermost handler: resolve plugin and action, decode the
// positional args, invoke, and marshal the result.
func (svr *Server) dispatch(ctx context.Context, req *message.RPCMessage) (resp *message.RPCMessage) {
	resp = &message.RPCMessage{Plugin: req.Plugin, Action: req.Action}

	svr.mu.RLock()
	p, ok := svr.plugins[req.Plugin]
	svr.mu.RUnlock()
	if !ok {
		resp.Error = fmt.Sprintf("%v: %s", ErrPluginNotFound, req.Plugin)
		return resp
	}
	at, ok := p.actions[req.Action]
	if !ok {
		resp.Error = fmt.Sprintf("%v: %s.%s", ErrActionNotFound, req.Plugin, req.Action)
		return resp
	}

	args, err := message.DecodeArgs(req.Payload)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	defer func() {
		if r := recover(); r != nil {
			svr.logger.Error("plugin action panicked", "target", req.Target(), "panic", r)
			resp.Payload = nil
			resp.Error = fmt.Sprintf("plugin panic: %v", r)
		}
	}()

	result, err := p.call(ctx, at, args)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	payload, err := json.Marshal(result)
	if err != nil {
		resp.Error = fmt.Sprintf("encode result: %v", err)
		return resp
	}
	resp.Payload = payload
	return resp
}
