package game_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gafferongames/cubes/internal/client"
	"github.com/gafferongames/cubes/internal/game"
	"github.com/gafferongames/cubes/internal/protocol"
	"github.com/gafferongames/cubes/internal/state"
	"github.com/gafferongames/cubes/internal/transport"
	"github.com/gafferongames/cubes/pkg/pacer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	serverAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: protocol.ServerPort}
	t0         = time.Date(2015, time.October, 1, 12, 0, 0, 0, time.UTC)
)

const dt = 1.0 / (protocol.ClientFrameRate * protocol.TicksPerClientFrame)

type publisher struct {
	statuses []client.Status
}

func (p *publisher) Publish(st client.Status) { p.statuses = append(p.statuses, st) }

func TestWorld(t *testing.T) {
	t.Run("input moves the cube", func(t *testing.T) {
		w := game.NewWorld(dt)
		for tick := range uint64(60) {
			w.Step(tick, state.Input{Right: true, Up: true})
		}

		body := w.Body()
		assert.Greater(t, body.Position.X, float32(0))
		assert.Less(t, body.Position.Y, float32(0))
		assert.Zero(t, body.Position.Z)
		assert.Equal(t, uint64(59), w.Tick())
	})

	t.Run("velocity decays without input", func(t *testing.T) {
		w := game.NewWorld(dt)
		w.Step(0, state.Input{Pull: true})
		before := w.Body().LinearVelocity.Magnitude()
		w.Step(1, game.NeutralInput())
		assert.Less(t, w.Body().LinearVelocity.Magnitude(), before)
	})

	t.Run("snapshot overrides prediction", func(t *testing.T) {
		w := game.NewWorld(dt)
		w.Step(0, state.Input{Left: true})

		body := state.RestingBody()
		body.Position = state.Vec3{X: 3, Y: 2, Z: 1}
		w.SetBody(body)
		assert.Equal(t, body, w.Body())
	})
}

func newLoop(t *testing.T) (*game.Loop, *transport.Loopback, *publisher) {
	t.Helper()

	lo := &transport.Loopback{}
	world := game.NewWorld(dt)
	c := client.New(lo, client.WithGUID(7), client.WithWorld(world))
	c.Connect(serverAddr, t0)
	pub := &publisher{}
	return game.NewLoop(c, world, game.WithPublisher(pub)), lo, pub
}

func TestLoop_Frame(t *testing.T) {
	loop, lo, pub := newLoop(t)

	require.NoError(t, loop.Frame(t0, game.NeutralInput()))
	require.Len(t, pub.statuses, 1)
	assert.Equal(t, "sending connect request", pub.statuses[0].State)
	assert.Len(t, lo.TakeSent(), 1)
	assert.Equal(t, uint64(3), loop.World().Tick())

	data, err := protocol.Marshal(&protocol.ConnectionDenied{ClientGUID: 7, ConnectSequence: 1})
	require.NoError(t, err)
	lo.Deliver(serverAddr, data)

	err = loop.Frame(t0.Add(time.Second/60), game.NeutralInput())
	assert.ErrorIs(t, err, game.ErrSessionEnded)
	assert.Equal(t, client.StateConnectionDenied, loop.Client().State())
	assert.Equal(t, "connection denied", pub.statuses[1].State)
}

func TestLoop_Run(t *testing.T) {
	fakeClock := func() pacer.Option {
		now := t0
		return pacer.WithClock(
			func() time.Time { return now },
			func(ctx context.Context, d time.Duration) error {
				now = now.Add(d)
				return ctx.Err()
			},
		)
	}

	t.Run("times out against a silent server", func(t *testing.T) {
		loop, _, pub := newLoop(t)
		p := pacer.New(protocol.ClientFrameDuration, pacer.WithSleepJitter(0), fakeClock())

		err := loop.Run(context.Background(), p, game.NeutralInput)
		assert.ErrorIs(t, err, game.ErrSessionEnded)
		assert.Equal(t, client.StateTimedOut, loop.Client().State())

		// 5s at 60 frames per second, plus the frame that noticed
		assert.InDelta(t, 5*protocol.ClientFrameRate, len(pub.statuses), 3)
	})

	t.Run("stops with the context", func(t *testing.T) {
		loop, _, _ := newLoop(t)
		p := pacer.New(protocol.ClientFrameDuration, fakeClock())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, loop.Run(ctx, p, game.NeutralInput))
	})
}
