package state_test

import (
	"testing"

	"github.com/gafferongames/cubes/internal/state"
	"github.com/stretchr/testify/assert"
)

func TestBody_Integrate(t *testing.T) {
	body := state.RestingBody()
	body.Position = state.Vec3{X: 1, Y: 2, Z: 3}
	body.LinearVelocity = state.Vec3{X: 2, Y: -4, Z: 0}

	moved := body.Integrate(0.5)
	assert.Equal(t, state.Vec3{X: 2, Y: 0, Z: 3}, moved.Position)
	assert.Equal(t, body.LinearVelocity, moved.LinearVelocity)
	assert.Equal(t, state.IdentityQuat(), moved.Orientation)

	// value semantics
	assert.Equal(t, state.Vec3{X: 1, Y: 2, Z: 3}, body.Position)
}

func TestVec3_Magnitude(t *testing.T) {
	assert.InDelta(t, 5.0, state.Vec3{X: 3, Y: 4}.Magnitude(), 1e-6)
	assert.Zero(t, state.Vec3{}.Magnitude())
}

func TestInput_zero(t *testing.T) {
	var input state.Input
	assert.Equal(t, state.Input{}, input)
	assert.NotEqual(t, state.Input{Push: true}, input)
}
