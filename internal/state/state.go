package state

import "math"

// A zero valued input does not manipulate the simulation.
type Input struct {
	Left, Right, Up, Down bool
	Push, Pull            bool
}

const Vec3Size = 12

type Vec3 struct{ X, Y, Z float32 }

func (v Vec3) Add(other Vec3) Vec3 {
	v.X += other.X
	v.Y += other.Y
	v.Z += other.Z
	return v
}

func (v Vec3) Mul(other float32) Vec3 {
	v.X *= other
	v.Y *= other
	v.Z *= other
	return v
}

func (v Vec3) Magnitude() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

const QuatSize = 16

type Quat struct{ X, Y, Z, W float32 }

func IdentityQuat() Quat { return Quat{W: 1} }

// Body is the state of the one simulated cube that snapshots currently carry.
type Body struct {
	Position        Vec3
	Orientation     Quat
	LinearVelocity  Vec3
	AngularVelocity Vec3
}

const BodySize = 3*Vec3Size + QuatSize

func RestingBody() Body {
	return Body{Orientation: IdentityQuat()}
}

// Integrate moves the body along its linear velocity for dt seconds.
func (b Body) Integrate(dt float32) Body {
	b.Position = b.LinearVelocity.Mul(dt).Add(b.Position)
	return b
}
