package network

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// TCPTransport listens for and dials out plain TCP connections, wrapping
// each one as a TCPPeer.
type TCPTransport struct {
	server *Server
	log    *zap.Logger
	host   string
	port   string
	ln     net.Listener
}

// NewTCPTransport creates a TCPTransport that will announce itself (once
// Accept is called) on addr.
func NewTCPTransport(s *Server, addr string, log *zap.Logger) *TCPTransport {
	host, port, _ := net.SplitHostPort(addr)
	return &TCPTransport{
		server: s,
		log:    log,
		host:   host,
		port:   port,
	}
}

// Dial connects to addr, returning the wrapped peer once the TCP
// connection itself is established (before any handshake).
func (t *TCPTransport) Dial(addr string, timeout time.Duration) (AddressablePeer, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	p := NewTCPPeer(conn)
	go t.server.handleConn(p)
	return p, nil
}

// Accept starts listening on the configured address, handing every
// inbound connection to the server in its own goroutine.
func (t *TCPTransport) Accept() {
	ln, err := net.Listen("tcp", net.JoinHostPort(t.host, t.port))
	if err != nil {
		t.log.Panic("failed to listen", zap.Error(err))
		return
	}
	t.ln = ln
	if _, port, err := net.SplitHostPort(ln.Addr().String()); err == nil {
		t.port = port
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go t.server.handleConn(NewTCPPeer(conn))
	}
}

// Proto implements the Transporter interface.
func (t *TCPTransport) Proto() string { return "tcp" }

// HostPort returns the host and port this transport listens on.
func (t *TCPTransport) HostPort() (string, string) {
	return t.host, t.port
}

// Close stops accepting new connections.
func (t *TCPTransport) Close() {
	if t.ln != nil {
		_ = t.ln.Close()
	}
}

// AnnouncedPort returns the port as an integer, e.g. for advertising in
// a TCPServer capability.
func (t *TCPTransport) AnnouncedPort() (uint16, error) {
	var p int
	if _, err := fmt.Sscanf(t.port, "%d", &p); err != nil {
		return 0, err
	}
	return uint16(p), nil
}
