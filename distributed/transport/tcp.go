// tcp.go: default Transport implementation — one TCP connection per
// peer, pooled and reused, each message length-prefixed with a 4-byte
// big-endian frame header.
//
// Favors small, explicit concurrency primitives over a heavyweight RPC
// framework; fan-out in BroadcastMany uses golang.org/x/sync/errgroup,
// the same package ../../loader.go draws singleflight from, instead of
// hand-rolled WaitGroup/channel plumbing.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const maxFrameSize = 16 << 20 // 16 MiB, guards against a corrupt length prefix

// TCPTransport is the default framed-TCP Transport.
type TCPTransport struct {
	listenAddr string
	listener   net.Listener
	handlers   map[MessageKind]Handler
	handlersMu sync.RWMutex

	pool   sync.Map // addr string -> *pooledConn
	stats  statCounters
	closed chan struct{}
}

type pooledConn struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewTCPTransport creates a transport that listens on listenAddr (may
// be empty for a client-only transport that never calls Start).
func NewTCPTransport(listenAddr string) *TCPTransport {
	return &TCPTransport{
		listenAddr: listenAddr,
		handlers:   make(map[MessageKind]Handler),
		closed:     make(chan struct{}),
	}
}

// Start begins accepting inbound connections.
func (t *TCPTransport) Start() error {
	if t.listenAddr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return fmt.Errorf("distributed/transport: listen %s: %w", t.listenAddr, err)
	}
	t.listener = ln
	go t.acceptLoop(ln)
	return nil
}

// Stop closes the listener and every pooled outbound connection.
func (t *TCPTransport) Stop() error {
	close(t.closed)
	if t.listener != nil {
		_ = t.listener.Close()
	}
	t.pool.Range(func(_, v interface{}) bool {
		pc := v.(*pooledConn)
		pc.mu.Lock()
		_ = pc.conn.Close()
		pc.mu.Unlock()
		return true
	})
	return nil
}

// RegisterHandler installs h for inbound messages of kind.
func (t *TCPTransport) RegisterHandler(kind MessageKind, h Handler) {
	t.handlersMu.Lock()
	defer t.handlersMu.Unlock()
	t.handlers[kind] = h
}

// Stats returns the current counters.
func (t *TCPTransport) Stats() Stats {
	return t.stats.snapshot()
}

func (t *TCPTransport) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-t.closed:
				return
			default:
				continue
			}
		}
		t.stats.conns.Add(1)
		go t.serveConn(conn)
	}
}

func (t *TCPTransport) serveConn(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		t.stats.conns.Add(-1)
	}()
	for {
		msg, err := readFrame(conn)
		if err != nil {
			return
		}
		t.stats.received.Add(1)

		t.handlersMu.RLock()
		h, ok := t.handlers[msg.Kind]
		t.handlersMu.RUnlock()

		var reply *Message
		if ok {
			reply, err = h(context.Background(), msg)
			if err != nil {
				reply = &Message{Kind: KindError, Err: err.Error()}
			}
		} else {
			reply = &Message{Kind: KindError, Err: fmt.Sprintf("no handler for kind %d", msg.Kind)}
		}

		if err := writeFrame(conn, reply); err != nil {
			return
		}
		t.stats.sent.Add(1)
	}
}

// SendOne delivers msg to addr over a pooled connection and waits for
// the reply or ctx's deadline.
func (t *TCPTransport) SendOne(ctx context.Context, addr string, msg *Message) (*Message, error) {
	pc, err := t.conn(addr)
	if err != nil {
		t.stats.errors.Add(1)
		return nil, err
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = pc.conn.SetDeadline(deadline)
	} else {
		_ = pc.conn.SetDeadline(time.Now().Add(10 * time.Second))
	}

	if err := writeFrame(pc.conn, msg); err != nil {
		t.invalidate(addr)
		t.stats.errors.Add(1)
		return nil, fmt.Errorf("distributed/transport: send to %s: %w", addr, err)
	}
	t.stats.sent.Add(1)

	reply, err := readFrame(pc.conn)
	if err != nil {
		t.invalidate(addr)
		t.stats.errors.Add(1)
		return nil, fmt.Errorf("distributed/transport: recv from %s: %w", addr, err)
	}
	t.stats.received.Add(1)
	return reply, nil
}

// BroadcastMany fans SendOne out to every addr concurrently.
func (t *TCPTransport) BroadcastMany(ctx context.Context, addrs []string, msg *Message) []Result {
	results := make([]Result, len(addrs))
	g, gctx := errgroup.WithContext(context.Background())
	_ = gctx // each send uses the caller's ctx deadline independently

	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			reply, err := t.SendOne(ctx, addr, msg)
			results[i] = Result{Addr: addr, Reply: reply, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (t *TCPTransport) conn(addr string) (*pooledConn, error) {
	if v, ok := t.pool.Load(addr); ok {
		return v.(*pooledConn), nil
	}
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("distributed/transport: dial %s: %w", addr, err)
	}
	pc := &pooledConn{conn: conn}
	actual, loaded := t.pool.LoadOrStore(addr, pc)
	if loaded {
		_ = conn.Close()
		return actual.(*pooledConn), nil
	}
	t.stats.conns.Add(1)
	return pc, nil
}

func (t *TCPTransport) invalidate(addr string) {
	if v, ok := t.pool.LoadAndDelete(addr); ok {
		pc := v.(*pooledConn)
		pc.mu.Lock()
		_ = pc.conn.Close()
		pc.mu.Unlock()
		t.stats.conns.Add(-1)
	}
}

func readFrame(r io.Reader) (*Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("distributed/transport: frame too large: %d bytes", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	msg := &Message{}
	if err := msg.Unmarshal(buf); err != nil {
		return nil, err
	}
	return msg, nil
}

func writeFrame(w io.Writer, msg *Message) error {
	data, err := msg.Marshal()
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
