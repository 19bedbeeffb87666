package game

import (
	"github.com/gafferongames/cubes/internal/client"
	"github.com/gafferongames/cubes/internal/state"
)

const (
	acceleration = 40
	// damping is the fraction of velocity kept per tick
	damping = 0.99
)

// World predicts the player cube between server snapshots. Once the
// client is active every frame overwrites the prediction with the
// authoritative body.
type World struct {
	dt   float32
	tick uint64
	body state.Body
}

var _ client.World = (*World)(nil)

func NewWorld(dt float32) *World {
	return &World{
		dt:   dt,
		tick: 0,
		body: state.RestingBody(),
	}
}

func (w *World) Step(tick uint64, input state.Input) {
	var dir state.Vec3
	if input.Left {
		dir.X--
	}
	if input.Right {
		dir.X++
	}
	if input.Up {
		dir.Y--
	}
	if input.Down {
		dir.Y++
	}
	if input.Push {
		dir.Z--
	}
	if input.Pull {
		dir.Z++
	}

	w.body.LinearVelocity = w.body.LinearVelocity.Add(dir.Mul(acceleration * w.dt)).Mul(damping)
	w.body = w.body.Integrate(w.dt)
	w.tick = tick
}

func (w *World) SetBody(body state.Body) { w.body = body }

func (w *World) Body() state.Body { return w.body }

// Tick is the last tick that was stepped.
func (w *World) Tick() uint64 { return w.tick }
