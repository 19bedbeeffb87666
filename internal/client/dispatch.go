package client

import (
	"net"

	"github.com/gafferongames/cubes/internal/protocol"
)

// ReceivePackets drains the transport. Every datagram that Dispatch accepts
// keeps the session from timing out.
func (c *Client) ReceivePackets() {
	for {
		sender, data, ok := c.transport.Receive()
		if !ok {
			return
		}
		if c.Dispatch(sender, data) {
			c.lastPacketReceived = c.currentRealTime
		}
	}
}

// Dispatch decodes one datagram and applies it to the session. It reports
// whether the datagram was a packet from the current server that passed
// correlation. Nothing is mutated for datagrams it rejects.
func (c *Client) Dispatch(from net.Addr, data []byte) bool {
	p, err := protocol.Decode(data)
	if err != nil {
		c.logger.Debug("dropping malformed datagram", "remote", from, "size", len(data), "error", err)
		c.metrics.PacketsRejected.WithLabelValues("malformed").Inc()
		return false
	}
	if !c.fromServer(from) {
		c.logger.Debug("dropping packet from unknown sender", "remote", from, "type", p.Type())
		c.metrics.PacketsRejected.WithLabelValues("foreign").Inc()
		return false
	}

	var handled bool
	switch p := p.(type) {
	case *protocol.ConnectionAccepted:
		handled = c.handleAccepted(p)
	case *protocol.ConnectionDenied:
		handled = c.handleDenied(p)
	case *protocol.Snapshot:
		c.handleSnapshot(p)
		handled = true
	case *protocol.ConnectionRequest, *protocol.Input:
		handled = false
	}

	if !handled {
		c.logger.Debug("ignoring packet", "type", p.Type(), "state", c.state)
		c.metrics.PacketsRejected.WithLabelValues("uncorrelated").Inc()
		return false
	}
	c.metrics.PacketsReceived.WithLabelValues(p.Type().String()).Inc()
	return true
}

func (c *Client) fromServer(from net.Addr) bool {
	if c.serverAddr == nil || from == nil {
		return false
	}
	return from.Network() == c.serverAddr.Network() && from.String() == c.serverAddr.String()
}

func (c *Client) correlated(guid uint64, seq uint16) bool {
	return c.state == StateSendingConnectRequest && guid == c.guid && seq == c.connectSequence
}

func (c *Client) handleAccepted(p *protocol.ConnectionAccepted) bool {
	if !c.correlated(p.ClientGUID, p.ConnectSequence) {
		return false
	}
	c.logger.Info("connected", "connect_sequence", c.connectSequence)
	c.setState(StateConnected)
	return true
}

func (c *Client) handleDenied(p *protocol.ConnectionDenied) bool {
	if !c.correlated(p.ClientGUID, p.ConnectSequence) {
		return false
	}
	c.logger.Info("connection denied", "connect_sequence", c.connectSequence)
	c.setState(StateConnectionDenied)
	return true
}

// handleSnapshot arms the synchronizer. Nothing here moves the client tick;
// that waits for ApplyTimeSynchronization.
func (c *Client) handleSnapshot(p *protocol.Snapshot) {
	if c.state != StateConnected || p.Tick <= c.serverTick {
		return
	}

	if !c.sync.synchronizing && p.Synchronizing {
		c.logger.Info("synchronizing", "server_tick", p.Tick)
		c.sync.synchronizing = true
	}

	if c.sync.synchronizing {
		switch {
		case p.Synchronizing:
			c.serverTick = p.Tick
			c.sync.offset = p.SyncOffset
			c.sync.sequence = p.SyncSequence
		case !c.sync.readyToApply:
			c.sync.readyToApply = true
			c.bracket.bracketing = p.Bracketing
		}
		c.metrics.ServerTick.Set(float64(c.serverTick))
		return
	}

	if c.bracket.bracketing && !p.Bracketing {
		c.bracket.readyToApply = true
		c.bracket.offset = p.BracketOffset
	}
	c.bracket.bracketing = p.Bracketing

	c.reconnectRequested = p.Reconnect
	c.inputAck = p.InputAck
	c.serverTick = p.Tick

	if p.AdjustmentSequence != c.adjustment.sequence {
		c.adjustment.sequence = p.AdjustmentSequence
		c.adjustment.offset = p.AdjustmentOffset
		c.adjustment.readyToApply = true
	}

	c.body = p.Body
	c.metrics.ServerTick.Set(float64(c.serverTick))
}
