package fakeadbd

import (
	"context"
	"net"
	"sync"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Daemon is a running emulated device daemon. Create one with Start and shut
// it down with Stop; the recorders returned by Commands and SyncRequests may
// be read and cleared at any time while it runs.
type Daemon struct {
	l      log15.Logger
	banner string

	ln net.Listener

	commands     *Recorder[string]
	syncRequests *Recorder[SyncRequest]

	group    errgroup.Group
	stopOnce sync.Once

	connsMu  sync.Mutex
	conns    map[net.Conn]struct{}
	stopping bool
}

// Option is an option function for Start.
// See Rob Pike's post on the topic for more information on this pattern:
// https://commandcenter.blogspot.com/2014/01/self-referential-functions-and-design.html
type Option func(d *Daemon)

// WithLogger configures the logger used for daemon operations.
// By default, nothing will be logged.
func WithLogger(l log15.Logger) Option {
	return func(d *Daemon) {
		d.l = l
	}
}

// WithBanner overrides the device banner sent in the connect greeting. Real
// devices append property key-value pairs to "device::"; tests that care can
// emulate that here.
func WithBanner(banner string) Option {
	return func(d *Daemon) {
		d.banner = banner
	}
}

// Start binds an ephemeral loopback port for the given network ("tcp4" or
// "tcp6") and begins serving the protocol on a background goroutine. When it
// returns, the listener is live and a client may connect immediately.
func Start(network string, opts ...Option) (*Daemon, error) {
	noopLogger := log15.New()
	noopLogger.SetHandler(log15.DiscardHandler())
	d := &Daemon{
		l:            noopLogger,
		banner:       defaultBanner,
		commands:     &Recorder[string]{},
		syncRequests: &Recorder[SyncRequest]{},
		conns:        make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	var addr string
	switch network {
	case "tcp", "tcp4":
		addr = "127.0.0.1:0"
	case "tcp6":
		addr = "[::1]:0"
	default:
		return nil, errors.Errorf("unsupported network %q", network)
	}

	cfg := net.ListenConfig{Control: reuseAddr}
	ln, err := cfg.Listen(context.Background(), network, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "error listening on %s", network)
	}
	d.ln = ln
	d.l.Info("emulated daemon listening", "addr", ln.Addr())

	d.group.Go(d.serve)
	return d, nil
}

// Port returns the TCP port the daemon is listening on.
func (d *Daemon) Port() int {
	return d.ln.Addr().(*net.TCPAddr).Port
}

// Commands returns the log of OPEN destinations, in the order the daemon
// acknowledged them.
func (d *Daemon) Commands() *Recorder[string] {
	return d.commands
}

// SyncRequests returns the log of sync sub-protocol requests.
func (d *Daemon) SyncRequests() *Recorder[SyncRequest] {
	return d.syncRequests
}

func (d *Daemon) serve() error {
	for {
		sock, err := d.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				d.l.Info("listener closed, no longer accepting connections")
				return nil
			}
			d.l.Error("error accepting connection", "err", err)
			continue
		}
		if !d.addConn(sock) {
			// Raced with Stop; the listener close is already in flight.
			sock.Close()
			continue
		}
		c := newConnection(d, sock)
		d.group.Go(func() error {
			c.run()
			return nil
		})
	}
}

// addConn registers an accepted socket so Stop can close it. It refuses the
// registration once Stop has begun, so no connection can slip in after the
// shutdown snapshot and leak.
func (d *Daemon) addConn(sock net.Conn) bool {
	d.connsMu.Lock()
	defer d.connsMu.Unlock()
	if d.stopping {
		return false
	}
	d.conns[sock] = struct{}{}
	return true
}

func (d *Daemon) removeConn(sock net.Conn) {
	d.connsMu.Lock()
	defer d.connsMu.Unlock()
	delete(d.conns, sock)
}

// Stop closes the listener and every live connection, then blocks until the
// accept loop and all connection goroutines have finished. The bound port is
// free for reuse when it returns. Safe to call more than once, and correct
// even if the daemon never served a connection.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		d.connsMu.Lock()
		d.stopping = true
		open := make([]net.Conn, 0, len(d.conns))
		for sock := range d.conns {
			open = append(open, sock)
		}
		d.connsMu.Unlock()

		d.ln.Close()
		for _, sock := range open {
			sock.Close()
		}
		_ = d.group.Wait()
		d.l.Info("emulated daemon stopped")
	})
}
