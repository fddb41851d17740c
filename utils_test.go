package fakeadbd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startDaemon(t *testing.T, opts ...Option) *Daemon {
	d, err := Start("tcp4", opts...)
	require.NoError(t, err)
	t.Cleanup(d.Stop)
	return d
}

// testClient plays the adb server's role in an exchange: it dials the
// daemon, consumes the connect greeting, and can script the stream-open and
// sync exchanges.
type testClient struct {
	t    *testing.T
	conn net.Conn
}

// dialDaemon connects to the daemon and verifies the connect greeting before
// returning a ready-to-script client.
func dialDaemon(t *testing.T, d *Daemon, wantBanner string) *testClient {
	conn, err := net.Dial("tcp4", d.ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))

	hdr, payload, err := readMessage(conn)
	require.NoError(t, err)
	require.Equal(t, TagConnect, hdr.command)
	require.Equal(t, uint32(protocolVersion), hdr.arg0)
	require.Equal(t, uint32(maxPayloadSize), hdr.arg1)
	require.Equal(t, wantBanner, string(payload))

	return &testClient{t: t, conn: conn}
}

// open sends an OPEN for the given destination (NUL-terminated, as the real
// server sends it) and verifies the acknowledgement echoes the stream ids
// swapped.
func (c *testClient) open(dest string, localID uint32) {
	c.t.Helper()
	payload := append([]byte(dest), 0)
	_, err := c.conn.Write(marshalPacket(TagOpen, localID, 0, payload))
	require.NoError(c.t, err)

	hdr, data, err := readMessage(c.conn)
	require.NoError(c.t, err)
	require.Equal(c.t, TagOkay, hdr.command)
	require.Equal(c.t, uint32(0), hdr.arg0, "ack arg0 must echo the open's arg1")
	require.Equal(c.t, localID, hdr.arg1, "ack arg1 must echo the open's arg0")
	require.Empty(c.t, data)
}

func (c *testClient) writeSyncRequest(op Tag, path string) {
	c.t.Helper()
	frame := append(marshalSyncFrame(op, uint32(len(path))), path...)
	_, err := c.conn.Write(frame)
	require.NoError(c.t, err)
}

func (c *testClient) readSyncFrame() (Tag, uint32) {
	c.t.Helper()
	op, length, err := readSyncFrame(c.conn)
	require.NoError(c.t, err)
	return op, length
}
