package transport

import "net"

// Loopback is an in-memory Transport. Datagrams handed to Deliver are
// returned by Receive in order, and everything sent is kept in Sent.
type Loopback struct {
	Sent []Datagram

	inbox    []Datagram
	failSend bool
}

var _ Transport = (*Loopback)(nil)

func (l *Loopback) Deliver(sender net.Addr, data []byte) {
	l.inbox = append(l.inbox, Datagram{Addr: sender, Data: data})
}

// FailSends makes every following Send report a transient failure.
func (l *Loopback) FailSends(fail bool) { l.failSend = fail }

func (l *Loopback) Send(dest net.Addr, data []byte) bool {
	if l.failSend {
		return false
	}
	// the sender may reuse data
	l.Sent = append(l.Sent, Datagram{Addr: dest, Data: append([]byte(nil), data...)})
	return true
}

func (l *Loopback) Receive() (net.Addr, []byte, bool) {
	if len(l.inbox) == 0 {
		return nil, nil, false
	}
	dg := l.inbox[0]
	l.inbox = l.inbox[1:]
	return dg.Addr, dg.Data, true
}

// TakeSent returns and forgets everything sent so far.
func (l *Loopback) TakeSent() []Datagram {
	sent := l.Sent
	l.Sent = nil
	return sent
}
