package client

import (
	"time"

	"github.com/gafferongames/cubes/internal/state"
)

// Frame runs one client frame at wall clock time now with the input sampled
// for it. The frame covers TicksPerClientFrame simulation ticks.
func (c *Client) Frame(now time.Time, input state.Input) {
	c.Update(now)
	c.ReceivePackets()
	c.ApplyTimeSynchronization()

	c.history.Record(c.clientTick, input, c.ticksPerFrame)
	c.SendPackets()

	for range c.ticksPerFrame {
		c.world.Step(c.clientTick, input)
		c.clientTick++
	}
	c.metrics.ClientTick.Set(float64(c.clientTick))

	if c.active {
		c.world.SetBody(c.body)
	}

	if c.reconnectRequested {
		c.logger.Info("server requested reconnect")
		if err := c.Reconnect(now); err != nil {
			c.logger.Warn("failed to reconnect", "error", err)
		}
	}
}
