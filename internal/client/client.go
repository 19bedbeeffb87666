// Package client implements the client half of the cubes protocol: the
// connection handshake, the tick synchronization with the server and the
// redundant input stream sent once connected.
//
// A Client is driven by a single goroutine, one Frame at a time. It is not
// safe for concurrent use.
package client

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/gafferongames/cubes/internal/inputbuffer"
	"github.com/gafferongames/cubes/internal/metrics"
	"github.com/gafferongames/cubes/internal/protocol"
	"github.com/gafferongames/cubes/internal/state"
	"github.com/gafferongames/cubes/internal/transport"
	"github.com/google/uuid"
)

var ErrNoServerAddress = errors.New("no server address to reconnect to")

type State int

const (
	StateDisconnected State = iota
	StateSendingConnectRequest
	StateConnectionDenied
	StateTimedOut
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSendingConnectRequest:
		return "sending connect request"
	case StateConnectionDenied:
		return "connection denied"
	case StateTimedOut:
		return "timed out"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Terminal reports whether only Reconnect or Connect can leave s.
func (s State) Terminal() bool {
	return s == StateConnectionDenied || s == StateTimedOut
}

// World is the simulation the client drives. Step is called once per tick
// and SetBody whenever the client is active and holds a server snapshot.
type World interface {
	Step(tick uint64, input state.Input)
	SetBody(body state.Body)
}

type nopWorld struct{}

func (nopWorld) Step(uint64, state.Input) {}
func (nopWorld) SetBody(state.Body)       {}

type Option func(cfg *config)

type config struct {
	logger        *slog.Logger
	metrics       *metrics.Metrics
	world         World
	guid          uint64
	timeout       time.Duration
	ticksPerFrame int
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

func WithWorld(world World) Option {
	return func(cfg *config) {
		cfg.world = world
	}
}

// WithGUID fixes the session identity instead of drawing a random one.
func WithGUID(guid uint64) Option {
	return func(cfg *config) {
		cfg.guid = guid
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = timeout
	}
}

func WithTicksPerFrame(ticks int) Option {
	return func(cfg *config) {
		cfg.ticksPerFrame = ticks
	}
}

type synchronization struct {
	synchronizing bool
	readyToApply  bool
	synchronized  bool
	sequence      uint16
	offset        uint16
}

type bracket struct {
	bracketing   bool
	readyToApply bool
	bracketed    bool
	offset       uint16
}

type adjustment struct {
	readyToApply bool
	sequence     uint16
	offset       int32
}

type Client struct {
	transport     transport.Transport
	logger        *slog.Logger
	metrics       *metrics.Metrics
	world         World
	timeout       time.Duration
	ticksPerFrame int

	guid            uint64
	state           State
	serverAddr      net.Addr
	connectSequence uint16

	currentRealTime    time.Time
	lastPacketReceived time.Time

	clientTick uint64
	serverTick uint64

	sync       synchronization
	bracket    bracket
	adjustment adjustment

	active             bool
	inputAck           uint64
	history            *inputbuffer.History
	reconnectRequested bool
	suppressSend       bool
	body               state.Body
}

func New(tr transport.Transport, opts ...Option) *Client {
	cfg := config{
		logger:        slog.Default(),
		metrics:       nil,
		world:         nopWorld{},
		guid:          0,
		timeout:       protocol.Timeout,
		ticksPerFrame: protocol.TicksPerClientFrame,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.guid == 0 {
		id := uuid.New()
		cfg.guid = binary.BigEndian.Uint64(id[:8])
	}
	if cfg.metrics == nil {
		cfg.metrics = metrics.New(nil)
	}

	// NOTE: keep fields exhaustive
	return &Client{
		transport:     tr,
		logger:        cfg.logger.With("guid", cfg.guid),
		metrics:       cfg.metrics,
		world:         cfg.world,
		timeout:       cfg.timeout,
		ticksPerFrame: cfg.ticksPerFrame,

		guid:            cfg.guid,
		state:           StateDisconnected,
		serverAddr:      nil,
		connectSequence: 0,

		currentRealTime:    time.Time{},
		lastPacketReceived: time.Time{},

		clientTick: 0,
		serverTick: 0,

		sync:       synchronization{},
		bracket:    bracket{},
		adjustment: adjustment{},

		active:             false,
		inputAck:           0,
		history:            inputbuffer.New(protocol.InputSlidingWindowSize),
		reconnectRequested: false,
		suppressSend:       false,
		body:               state.RestingBody(),
	}
}

// Connect starts a fresh connection attempt to addr. Everything learned
// from an earlier attempt is forgotten except the identity.
func (c *Client) Connect(addr net.Addr, now time.Time) {
	c.connectSequence++
	c.logger.Info("connecting", "server", addr, "connect_sequence", c.connectSequence)

	c.serverAddr = addr
	c.currentRealTime = now
	c.lastPacketReceived = now
	c.clientTick = 0
	c.serverTick = 0
	c.sync = synchronization{}
	c.bracket = bracket{}
	c.adjustment = adjustment{}
	c.active = false
	c.inputAck = 0
	c.history.Clear()
	c.reconnectRequested = false
	c.setState(StateSendingConnectRequest)
	c.metrics.Connects.Inc()
}

// Reconnect connects again to the last server address.
func (c *Client) Reconnect(now time.Time) error {
	if c.serverAddr == nil {
		return ErrNoServerAddress
	}
	c.logger.Info("reconnecting", "from_state", c.state)
	c.Connect(c.serverAddr, now)
	return nil
}

func (c *Client) Disconnect() {
	if c.state != StateDisconnected {
		c.logger.Info("disconnected", "connect_sequence", c.connectSequence)
	}
	c.setState(StateDisconnected)
}

// Update advances the wall clock and times the session out when the server
// stayed silent for longer than the timeout.
func (c *Client) Update(now time.Time) {
	c.currentRealTime = now
	if c.state != StateSendingConnectRequest && c.state != StateConnected {
		return
	}
	if now.Sub(c.lastPacketReceived) > c.timeout {
		c.logger.Info("timed out", "connect_sequence", c.connectSequence,
			"silence", now.Sub(c.lastPacketReceived))
		c.setState(StateTimedOut)
		c.metrics.Timeouts.Inc()
	}
}

// SetSendSuppressed silences all outbound traffic while set, which looks
// like total packet loss to the server.
func (c *Client) SetSendSuppressed(suppress bool) { c.suppressSend = suppress }

func (c *Client) setState(s State) {
	c.state = s
	c.metrics.State.Set(float64(s))
}

func (c *Client) State() State                  { return c.state }
func (c *Client) GUID() uint64                  { return c.guid }
func (c *Client) ConnectSequence() uint16       { return c.connectSequence }
func (c *Client) ServerAddr() net.Addr          { return c.serverAddr }
func (c *Client) ClientTick() uint64            { return c.clientTick }
func (c *Client) ServerTick() uint64            { return c.serverTick }
func (c *Client) Synchronizing() bool           { return c.sync.synchronizing }
func (c *Client) Synchronized() bool            { return c.sync.synchronized }
func (c *Client) Bracketed() bool               { return c.bracket.bracketed }
func (c *Client) Active() bool                  { return c.active }
func (c *Client) InputAck() uint64              { return c.inputAck }
func (c *Client) LastPacketReceived() time.Time { return c.lastPacketReceived }
func (c *Client) ReconnectRequested() bool      { return c.reconnectRequested }
func (c *Client) Body() state.Body              { return c.body }

// RecordedInput returns the input the client holds for tick, if any.
func (c *Client) RecordedInput(tick uint64) (state.Input, bool) {
	return c.history.Lookup(tick)
}

// Status is a point in time copy of a session, safe to hand to other
// goroutines.
type Status struct {
	State              string     `json:"state"`
	GUID               uint64     `json:"guid"`
	ConnectSequence    uint16     `json:"connect_sequence"`
	ServerAddr         string     `json:"server_addr,omitempty"`
	ClientTick         uint64     `json:"client_tick"`
	ServerTick         uint64     `json:"server_tick"`
	Synchronized       bool       `json:"synchronized"`
	Bracketed          bool       `json:"bracketed"`
	Active             bool       `json:"active"`
	InputAck           uint64     `json:"input_ack"`
	AdjustmentSequence uint16     `json:"adjustment_sequence"`
	LastPacketReceived time.Time  `json:"last_packet_received"`
	Body               state.Body `json:"body"`
}

func (c *Client) Status() Status {
	var addr string
	if c.serverAddr != nil {
		addr = c.serverAddr.String()
	}

	// NOTE: keep fields exhaustive
	return Status{
		State:              c.state.String(),
		GUID:               c.guid,
		ConnectSequence:    c.connectSequence,
		ServerAddr:         addr,
		ClientTick:         c.clientTick,
		ServerTick:         c.serverTick,
		Synchronized:       c.sync.synchronized,
		Bracketed:          c.bracket.bracketed,
		Active:             c.active,
		InputAck:           c.inputAck,
		AdjustmentSequence: c.adjustment.sequence,
		LastPacketReceived: c.lastPacketReceived,
		Body:               c.body,
	}
}
