// Package transport moves opaque datagrams. Receiving never blocks: the
// protocol core polls once per frame and drains whatever has arrived.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

var ErrClosed = errors.New("use of closed transport")

type Transport interface {
	// Send reports whether the datagram left. A false return is transient.
	Send(dest net.Addr, data []byte) bool
	// Receive returns the next pending datagram, or false when none is left.
	Receive() (sender net.Addr, data []byte, ok bool)
}

// Datagram is one unit of traffic. Addr is the sender of received datagrams
// and the destination of sent ones.
type Datagram struct {
	Addr net.Addr
	Data []byte
}

type Option func(cfg *config)

type config struct {
	logger    *slog.Logger
	queueSize int
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithQueueSize bounds how many datagrams may wait between two polls.
// Datagrams arriving while the queue is full are dropped.
func WithQueueSize(size int) Option {
	return func(cfg *config) {
		cfg.queueSize = size
	}
}

const (
	defaultQueueSize = 256
	bufSize          = 2048
)

type UDP struct {
	conn   net.PacketConn
	logger *slog.Logger
	inbox  chan Datagram

	dropped atomic.Uint64

	closeOnce sync.Once
	closed    atomic.Bool
}

var _ Transport = (*UDP)(nil)

func Listen(laddr string, opts ...Option) (*UDP, error) {
	cfg := config{
		logger:    slog.Default(),
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	conn, err := net.ListenPacket("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("binding to udp %q: %w", laddr, err)
	}

	// NOTE: keep fields exhaustive
	t := &UDP{
		conn:      conn,
		logger:    cfg.logger.With("local", conn.LocalAddr()),
		inbox:     make(chan Datagram, cfg.queueSize),
		dropped:   atomic.Uint64{},
		closeOnce: sync.Once{},
		closed:    atomic.Bool{},
	}
	go t.readLoop()
	return t, nil
}

func (t *UDP) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// Dropped counts datagrams discarded because the inbox was full.
func (t *UDP) Dropped() uint64 { return t.dropped.Load() }

func (t *UDP) Send(dest net.Addr, data []byte) bool {
	if t.closed.Load() {
		return false
	}
	_, err := t.conn.WriteTo(data, dest)
	if err != nil {
		t.logger.Debug("failed to write datagram", "remote", dest, "error", err)
		return false
	}
	return true
}

func (t *UDP) Receive() (net.Addr, []byte, bool) {
	select {
	case dg, open := <-t.inbox:
		if !open {
			return nil, nil, false
		}
		return dg.Addr, dg.Data, true
	default:
		return nil, nil, false
	}
}

func (t *UDP) Close() error {
	ran := false
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		ran = true
	})
	if !ran {
		return ErrClosed
	}

	err := t.conn.Close()
	if err != nil {
		return fmt.Errorf("closing udp %q: %w", t.LocalAddr(), err)
	}
	return nil
}

func (t *UDP) readLoop() {
	defer close(t.inbox)

	buf := make([]byte, bufSize)
	for {
		n, raddr, err := t.conn.ReadFrom(buf)
		if errors.Is(err, net.ErrClosed) {
			t.logger.Debug("connection closed")
			return
		}
		if err != nil {
			t.logger.Warn("failed to read from udp", "error", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case t.inbox <- Datagram{Addr: raddr, Data: data}:
		default:
			t.dropped.Add(1)
			t.logger.Debug("inbox full, dropping datagram", "remote", raddr, "size", n)
		}
	}
}
