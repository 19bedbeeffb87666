// Package protocol defines the packets exchanged between a cubes client and
// server and their bit-packed wire layout.
package protocol

import (
	"errors"
	"fmt"
	"time"
)

const (
	ServerPort = 50000

	// MaxPacketSize bounds every datagram in both directions.
	MaxPacketSize = 1024

	MaxInputsPerPacket     = 32
	InputSlidingWindowSize = 256

	ClientFrameRate     = 60
	TicksPerClientFrame = 4
	ClientFrameDuration = time.Second / ClientFrameRate

	// Timeout is how long a session survives without a valid packet from the
	// server.
	Timeout = 5 * time.Second
)

var ErrUnknownPacketType = errors.New("unknown packet type")

type Type uint8

const (
	TypeConnectionRequest Type = iota
	TypeConnectionAccepted
	TypeConnectionDenied
	TypeInput
	TypeSnapshot

	NumPacketTypes
)

func (t Type) String() string {
	switch t {
	case TypeConnectionRequest:
		return "connection request"
	case TypeConnectionAccepted:
		return "connection accepted"
	case TypeConnectionDenied:
		return "connection denied"
	case TypeInput:
		return "input"
	case TypeSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}
