package client

import "github.com/gafferongames/cubes/internal/state"

// ApplyTimeSynchronization applies whatever the last snapshots armed. Every
// phase takes effect one pass after the snapshot that triggered it, so one
// late snapshot can never apply twice.
func (c *Client) ApplyTimeSynchronization() {
	if c.sync.synchronizing && c.sync.readyToApply {
		c.clientTick = c.serverTick + uint64(c.sync.offset)
		c.sync.synchronizing = false
		c.sync.readyToApply = false
		c.sync.synchronized = true
		c.logger.Info("synchronized", "sync_offset", c.sync.offset, "client_tick", c.clientTick)
	}

	if c.bracket.readyToApply {
		c.bracket.readyToApply = false
		c.bracket.bracketed = true
		c.clientTick = c.shiftTick(-int64(c.bracket.offset))
		c.active = true
		c.inputAck = 0
		// inputs keyed to ticks before the jump must never be replayed
		c.history.Clear()
		c.logger.Info("bracketed, client is active", "bracket_offset", c.bracket.offset, "client_tick", c.clientTick)
	}

	if c.adjustment.readyToApply {
		c.adjustment.readyToApply = false
		origin := c.clientTick
		c.clientTick = c.shiftTick(int64(c.adjustment.offset))
		if c.adjustment.offset > 0 {
			// the server would read skipped ticks as lost input
			c.history.Record(origin, state.Input{}, int(c.adjustment.offset))
		}
		c.logger.Info("adjusted", "adjustment_offset", c.adjustment.offset,
			"prediction", int64(c.clientTick)-int64(c.serverTick))
		c.metrics.Adjustments.Inc()
		c.metrics.AdjustmentOffset.Observe(float64(c.adjustment.offset))
	}

	c.metrics.ClientTick.Set(float64(c.clientTick))
}

// shiftTick moves the client tick by offset, stopping at zero.
func (c *Client) shiftTick(offset int64) uint64 {
	if offset >= 0 {
		return c.clientTick + uint64(offset)
	}
	if back := uint64(-offset); back <= c.clientTick {
		return c.clientTick - back
	}
	c.logger.Warn("tick offset reaches past zero", "client_tick", c.clientTick, "offset", offset)
	return 0
}
