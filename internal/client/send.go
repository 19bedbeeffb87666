package client

import (
	"github.com/gafferongames/cubes/internal/protocol"
)

// SendPackets sends at most one packet, chosen by the connection state.
func (c *Client) SendPackets() {
	if c.suppressSend {
		return
	}

	var p protocol.Packet
	switch c.state {
	case StateSendingConnectRequest:
		p = &protocol.ConnectionRequest{
			ClientGUID:      c.guid,
			ConnectSequence: c.connectSequence,
		}
	case StateConnected:
		p = c.inputPacket()
	default:
		return
	}

	c.send(p)
}

// inputPacket echoes the sync handshake while synchronizing. Otherwise it
// carries every unacknowledged input up to the last tick of this frame.
func (c *Client) inputPacket() *protocol.Input {
	if c.sync.synchronizing {
		return &protocol.Input{
			Synchronizing: true,
			SyncOffset:    c.sync.offset,
			SyncSequence:  c.sync.sequence,
			Tick:          c.serverTick,
		}
	}

	tick := c.clientTick + uint64(c.ticksPerFrame) - 1
	return &protocol.Input{
		Tick:   tick,
		Inputs: c.history.Window(tick, c.inputAck, protocol.MaxInputsPerPacket),
	}
}

func (c *Client) send(p protocol.Packet) {
	data, err := protocol.Marshal(p)
	if err != nil {
		c.logger.Error("failed to encode packet", "type", p.Type(), "error", err)
		return
	}
	if !c.transport.Send(c.serverAddr, data) {
		c.logger.Debug("failed to send packet", "type", p.Type(), "server", c.serverAddr)
		c.metrics.SendFailures.Inc()
		return
	}
	c.metrics.PacketsSent.WithLabelValues(p.Type().String()).Inc()
}
