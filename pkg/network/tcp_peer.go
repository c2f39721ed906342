package network

import (
	"errors"
	"net"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/network/payload"
)

var (
	errAlreadyDone   = errors.New("network: handshake step already done")
	errOutOfOrder    = errors.New("network: handshake step out of order")
	errNotHandshaked = errors.New("network: peer hasn't completed the handshake")
)

// TCPPeer is a peer reachable over a plain TCP connection. It tracks the
// handshake's four steps (send/receive Version, send/receive Verack)
// independently per direction, since the two sides don't necessarily
// perform them in the same order.
type TCPPeer struct {
	conn net.Conn
	r    *io.BinReader

	lock        sync.RWMutex
	versionSent bool
	versionRecv bool
	ackSent     bool
	ackRecv     bool

	version *payload.Version
}

// NewTCPPeer creates a TCPPeer wrapping conn.
func NewTCPPeer(conn net.Conn) *TCPPeer {
	return &TCPPeer{conn: conn, r: io.NewBinReaderFromIO(conn)}
}

// reader returns the BinReader messages are decoded from, reused across
// every message so trailing bytes of one frame never get skipped.
func (p *TCPPeer) reader() *io.BinReader {
	return p.r
}

// ConnectionAddr returns the remote address used to reach this peer.
func (p *TCPPeer) ConnectionAddr() string {
	return p.conn.RemoteAddr().String()
}

// PeerAddr returns the peer's network address.
func (p *TCPPeer) PeerAddr() net.Addr {
	return p.conn.RemoteAddr()
}

// Version returns the Version payload the peer advertised, or nil if
// the handshake hasn't reached that point yet.
func (p *TCPPeer) Version() *payload.Version {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.version
}

// Handshaked reports whether both sides' Version and Verack exchange
// has completed.
func (p *TCPPeer) Handshaked() bool {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.versionSent && p.versionRecv && p.ackSent && p.ackRecv
}

// SendVersion writes msg (expected to carry a Version payload) and
// records that this side's half of the version exchange is done.
func (p *TCPPeer) SendVersion(msg *Message) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.versionSent {
		return errAlreadyDone
	}
	if err := p.writeMsg(msg); err != nil {
		return err
	}
	p.versionSent = true
	return nil
}

// HandleVersion records the peer's Version payload and that this side's
// half of the version exchange is done.
func (p *TCPPeer) HandleVersion(v *payload.Version) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.versionRecv {
		return errAlreadyDone
	}
	p.version = v
	p.versionRecv = true
	return nil
}

// SendVersionAck writes msg (expected to carry a Verack) once both
// sides' Version payloads have been exchanged.
func (p *TCPPeer) SendVersionAck(msg *Message) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.versionSent || !p.versionRecv {
		return errOutOfOrder
	}
	if p.ackSent {
		return errAlreadyDone
	}
	if err := p.writeMsg(msg); err != nil {
		return err
	}
	p.ackSent = true
	return nil
}

// HandleVersionAck records receipt of the peer's Verack, completing the
// handshake once both sides' Version and Verack steps are done.
func (p *TCPPeer) HandleVersionAck() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.versionSent || !p.versionRecv {
		return errOutOfOrder
	}
	if p.ackRecv {
		return errAlreadyDone
	}
	p.ackRecv = true
	return nil
}

// WriteMsg writes msg to the peer's connection. It only succeeds once
// the handshake has completed.
func (p *TCPPeer) WriteMsg(msg *Message) error {
	p.lock.RLock()
	handshaked := p.versionSent && p.versionRecv && p.ackSent && p.ackRecv
	p.lock.RUnlock()
	if !handshaked {
		return errNotHandshaked
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.writeMsg(msg)
}

func (p *TCPPeer) writeMsg(msg *Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	_, err = p.conn.Write(data)
	return err
}

// Disconnect closes the underlying connection.
func (p *TCPPeer) Disconnect(error) {
	_ = p.conn.Close()
}
