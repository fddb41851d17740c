package fakeadbd

import (
	"net"
	"strings"

	"github.com/inconshreveable/log15"
)

// syncService is the OPEN destination that switches a connection into the
// file-transfer sub-protocol.
const syncService = "sync:"

// connection is the per-socket state machine. Each connection is owned by
// exactly one goroutine; nothing here needs locking except the shared
// recorders, which lock internally.
type connection struct {
	d     *Daemon
	sock  net.Conn
	state connState
	l     log15.Logger
}

func newConnection(d *Daemon, sock net.Conn) *connection {
	return &connection{
		d:     d,
		sock:  sock,
		state: connStateInit,
		l:     d.l.New("remote", sock.RemoteAddr()),
	}
}

// run drives the connection until the peer goes away or the daemon stops.
// All failures are local to this connection: the socket is torn down and the
// goroutine exits without reporting anything to the caller.
func (c *connection) run() {
	defer func() {
		c.state.mustTransitionTo(connStateClosed)
		c.d.removeConn(c.sock)
		c.sock.Close()
		c.l.Debug("connection closed")
	}()

	// Greet immediately rather than waiting for the peer to speak first; the
	// peer's own CNXN arrives afterward and is swallowed by the ignore branch
	// below.
	greeting := marshalPacket(TagConnect, protocolVersion, maxPayloadSize, []byte(c.d.banner))
	if _, err := c.sock.Write(greeting); err != nil {
		c.l.Debug("failed to send connect greeting", "err", err)
		return
	}
	c.state.mustTransitionTo(connStateHandshakeSent)

	for {
		hdr, payload, err := readMessage(c.sock)
		if err != nil {
			// Closed, reset, or a short header; all torn down the same way.
			return
		}

		switch hdr.command {
		case TagOpen:
			if !c.handleOpen(hdr, payload) {
				return
			}
		default:
			c.l.Debug("ignoring command", "command", hdr.command)
		}
	}
}

// handleOpen records the stream destination and acknowledges it. The record
// is appended before the reply is written so that a caller who has observed
// the client finish is guaranteed to see the entry. Returns false when the
// connection should be torn down.
func (c *connection) handleOpen(hdr header, payload []byte) bool {
	dest := strings.TrimRight(string(payload), "\x00")
	c.l.Info("stream opened", "destination", dest)
	c.d.commands.append(dest)

	// OKAY echoes the stream ids swapped, carrying no payload.
	if _, err := c.sock.Write(marshalPacket(TagOkay, hdr.arg1, hdr.arg0, nil)); err != nil {
		return false
	}

	if dest != syncService {
		return true
	}
	c.state.mustTransitionTo(connStateInSync)
	ok := c.serveSync()
	if ok {
		c.state.mustTransitionTo(connStateHandshakeSent)
	}
	return ok
}
