package protocol

import (
	"fmt"

	"github.com/gafferongames/cubes/internal/bitstream"
)

var typeBits = bitstream.BitsRequired(0, int64(NumPacketTypes-1))

// Encode serializes p into buf and returns the number of bytes used. It fails
// with bitstream.ErrOverflow if p does not fit into buf.
func Encode(buf []byte, p Packet) (int, error) {
	w := bitstream.NewWriter(len(buf))
	w.WriteInt(int64(p.Type()), 0, int64(NumPacketTypes-1))
	p.write(w)
	data, err := w.Flush()
	if err != nil {
		return 0, fmt.Errorf("encoding %s packet: %w", p.Type(), err)
	}
	return copy(buf, data), nil
}

// Marshal encodes p into a freshly allocated datagram of at most
// MaxPacketSize bytes.
func Marshal(p Packet) ([]byte, error) {
	buf := make([]byte, MaxPacketSize)
	n, err := Encode(buf, p)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Decode parses a whole datagram. Any error means the datagram must be
// dropped as a unit.
func Decode(data []byte) (Packet, error) {
	r := bitstream.NewReader(data)
	tag := r.ReadBits(typeBits)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decoding packet type: %w", err)
	}
	if tag >= uint64(NumPacketTypes) {
		return nil, fmt.Errorf("packet type %d: %w", tag, ErrUnknownPacketType)
	}

	var p Packet
	switch typ := Type(tag); typ {
	case TypeConnectionRequest:
		p = &ConnectionRequest{}
	case TypeConnectionAccepted:
		p = &ConnectionAccepted{}
	case TypeConnectionDenied:
		p = &ConnectionDenied{}
	case TypeInput:
		p = &Input{}
	case TypeSnapshot:
		p = &Snapshot{}
	default:
		panic(fmt.Sprintf("protocol error: unhandled packet type %s", typ))
	}

	p.read(r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decoding %s packet: %w", p.Type(), err)
	}
	return p, nil
}
