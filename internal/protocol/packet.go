package protocol

import (
	"github.com/gafferongames/cubes/internal/bitstream"
	"github.com/gafferongames/cubes/internal/state"
)

// Packet is implemented by exactly the five packet kinds of this package.
type Packet interface {
	Type() Type

	write(w *bitstream.Writer)
	read(r *bitstream.Reader)
}

var (
	_ Packet = (*ConnectionRequest)(nil)
	_ Packet = (*ConnectionAccepted)(nil)
	_ Packet = (*ConnectionDenied)(nil)
	_ Packet = (*Input)(nil)
	_ Packet = (*Snapshot)(nil)
)

// ConnectionRequest is sent by the client until the server answers.
type ConnectionRequest struct {
	ClientGUID      uint64
	ConnectSequence uint16
}

func (*ConnectionRequest) Type() Type { return TypeConnectionRequest }

func (p *ConnectionRequest) write(w *bitstream.Writer) {
	w.WriteUint64(p.ClientGUID)
	w.WriteUint16(p.ConnectSequence)
}

func (p *ConnectionRequest) read(r *bitstream.Reader) {
	p.ClientGUID = r.ReadUint64()
	p.ConnectSequence = r.ReadUint16()
}

type ConnectionAccepted struct {
	ClientGUID      uint64
	ConnectSequence uint16
}

func (*ConnectionAccepted) Type() Type { return TypeConnectionAccepted }

func (p *ConnectionAccepted) write(w *bitstream.Writer) {
	w.WriteUint64(p.ClientGUID)
	w.WriteUint16(p.ConnectSequence)
}

func (p *ConnectionAccepted) read(r *bitstream.Reader) {
	p.ClientGUID = r.ReadUint64()
	p.ConnectSequence = r.ReadUint16()
}

type ConnectionDenied struct {
	ClientGUID      uint64
	ConnectSequence uint16
}

func (*ConnectionDenied) Type() Type { return TypeConnectionDenied }

func (p *ConnectionDenied) write(w *bitstream.Writer) {
	w.WriteUint64(p.ClientGUID)
	w.WriteUint16(p.ConnectSequence)
}

func (p *ConnectionDenied) read(r *bitstream.Reader) {
	p.ClientGUID = r.ReadUint64()
	p.ConnectSequence = r.ReadUint16()
}

// Input carries client input. While Synchronizing it only echoes the sync
// handshake; otherwise Inputs holds the samples for Tick, Tick-1, ... in that
// order.
type Input struct {
	Synchronizing bool

	SyncOffset   uint16
	SyncSequence uint16

	Tick   uint64
	Inputs []state.Input
}

func (*Input) Type() Type { return TypeInput }

func (p *Input) write(w *bitstream.Writer) {
	w.WriteBool(p.Synchronizing)
	if p.Synchronizing {
		w.WriteUint16(p.SyncOffset)
		w.WriteUint16(p.SyncSequence)
		w.WriteUint64(p.Tick)
		return
	}

	w.WriteUint64(p.Tick)
	w.WriteInt(int64(len(p.Inputs)), 0, MaxInputsPerPacket)
	for _, input := range p.Inputs {
		writeInput(w, input)
	}
}

func (p *Input) read(r *bitstream.Reader) {
	p.Synchronizing = r.ReadBool()
	if p.Synchronizing {
		p.SyncOffset = r.ReadUint16()
		p.SyncSequence = r.ReadUint16()
		p.Tick = r.ReadUint64()
		return
	}

	p.Tick = r.ReadUint64()
	numInputs := r.ReadInt(0, MaxInputsPerPacket)
	if r.Err() != nil || numInputs == 0 {
		return
	}
	p.Inputs = make([]state.Input, numInputs)
	for i := range p.Inputs {
		p.Inputs[i] = readInput(r)
	}
}

func writeInput(w *bitstream.Writer, input state.Input) {
	w.WriteBool(input.Left)
	w.WriteBool(input.Right)
	w.WriteBool(input.Up)
	w.WriteBool(input.Down)
	w.WriteBool(input.Push)
	w.WriteBool(input.Pull)
}

func readInput(r *bitstream.Reader) state.Input {
	return state.Input{
		Left:  r.ReadBool(),
		Right: r.ReadBool(),
		Up:    r.ReadBool(),
		Down:  r.ReadBool(),
		Push:  r.ReadBool(),
		Pull:  r.ReadBool(),
	}
}

// Snapshot is the server's view of the world. While Synchronizing only Tick,
// SyncOffset and SyncSequence are on the wire; otherwise everything except
// those two sync fields is.
type Snapshot struct {
	Synchronizing bool
	Tick          uint64

	SyncOffset   uint16
	SyncSequence uint16

	Reconnect     bool
	Bracketing    bool
	BracketOffset uint16
	InputAck      uint64

	AdjustmentSequence uint16
	AdjustmentOffset   int32

	Body state.Body
}

func (*Snapshot) Type() Type { return TypeSnapshot }

func (p *Snapshot) write(w *bitstream.Writer) {
	w.WriteBool(p.Synchronizing)
	w.WriteUint64(p.Tick)
	if p.Synchronizing {
		w.WriteUint16(p.SyncOffset)
		w.WriteUint16(p.SyncSequence)
		return
	}

	w.WriteBool(p.Reconnect)
	w.WriteBool(p.Bracketing)
	w.WriteUint16(p.BracketOffset)
	w.WriteUint64(p.InputAck)
	w.WriteUint16(p.AdjustmentSequence)
	w.WriteInt32(p.AdjustmentOffset)
	writeBody(w, p.Body)
}

func (p *Snapshot) read(r *bitstream.Reader) {
	p.Synchronizing = r.ReadBool()
	p.Tick = r.ReadUint64()
	if p.Synchronizing {
		p.SyncOffset = r.ReadUint16()
		p.SyncSequence = r.ReadUint16()
		return
	}

	p.Reconnect = r.ReadBool()
	p.Bracketing = r.ReadBool()
	p.BracketOffset = r.ReadUint16()
	p.InputAck = r.ReadUint64()
	p.AdjustmentSequence = r.ReadUint16()
	p.AdjustmentOffset = r.ReadInt32()
	p.Body = readBody(r)
}

func writeVec3(w *bitstream.Writer, v state.Vec3) {
	w.WriteFloat32(v.X)
	w.WriteFloat32(v.Y)
	w.WriteFloat32(v.Z)
}

func readVec3(r *bitstream.Reader) state.Vec3 {
	return state.Vec3{
		X: r.ReadFloat32(),
		Y: r.ReadFloat32(),
		Z: r.ReadFloat32(),
	}
}

func writeBody(w *bitstream.Writer, body state.Body) {
	writeVec3(w, body.Position)
	w.WriteFloat32(body.Orientation.X)
	w.WriteFloat32(body.Orientation.Y)
	w.WriteFloat32(body.Orientation.Z)
	w.WriteFloat32(body.Orientation.W)
	writeVec3(w, body.LinearVelocity)
	writeVec3(w, body.AngularVelocity)
}

func readBody(r *bitstream.Reader) state.Body {
	var body state.Body
	body.Position = readVec3(r)
	body.Orientation = state.Quat{
		X: r.ReadFloat32(),
		Y: r.ReadFloat32(),
		Z: r.ReadFloat32(),
		W: r.ReadFloat32(),
	}
	body.LinearVelocity = readVec3(r)
	body.AngularVelocity = readVec3(r)
	return body
}
