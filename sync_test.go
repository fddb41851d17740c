package fakeadbd

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// 33188 is the decimal rendering of 0o100644, the mode the real client sends
// for a plain rw-r--r-- file.
const pushPath = "/data/local/tmp/test,33188"

func TestSyncPush(t *testing.T) {
	d := startDaemon(t)
	c := dialDaemon(t, d, defaultBanner)
	c.open("sync:", 1)

	c.writeSyncRequest(TagSend, pushPath)
	_, err := c.conn.Write(append(marshalSyncFrame(TagData, 5), "hello"...))
	require.NoError(t, err)
	_, err = c.conn.Write(marshalSyncFrame(TagDone, 0))
	require.NoError(t, err)

	op, length := c.readSyncFrame()
	require.Equal(t, TagOkay, op)
	require.Zero(t, length)

	c.writeSyncRequest(TagQuit, "")
	// The connection drops out of the sync session on QUIT; plain opens
	// must work again.
	c.open("shell:ls", 2)

	require.Equal(t, []string{"sync:", "shell:ls"}, d.Commands().Snapshot())
	require.Equal(t, []SyncRequest{
		{Op: TagSend, Path: pushPath},
		{Op: TagQuit, Path: ""},
	}, d.SyncRequests().Snapshot())
}

func TestSyncPushMultipleDataFrames(t *testing.T) {
	d := startDaemon(t)
	c := dialDaemon(t, d, defaultBanner)
	c.open("sync:", 1)

	c.writeSyncRequest(TagSend, pushPath)
	for i := 0; i < 3; i++ {
		_, err := c.conn.Write(append(marshalSyncFrame(TagData, 4), "abcd"...))
		require.NoError(t, err)
	}
	_, err := c.conn.Write(marshalSyncFrame(TagDone, 0))
	require.NoError(t, err)

	op, length := c.readSyncFrame()
	require.Equal(t, TagOkay, op)
	require.Zero(t, length)
}

func TestSyncPull(t *testing.T) {
	d := startDaemon(t)
	c := dialDaemon(t, d, defaultBanner)
	c.open("sync:", 1)

	c.writeSyncRequest(TagRecv, "/data/local/tmp/test")

	op, length := c.readSyncFrame()
	require.Equal(t, TagData, op)
	data := make([]byte, length)
	_, err := io.ReadFull(c.conn, data)
	require.NoError(t, err)
	require.Equal(t, cannedFileData, string(data))

	op, length = c.readSyncFrame()
	require.Equal(t, TagDone, op)
	require.Zero(t, length)

	c.writeSyncRequest(TagQuit, "")
	c.open("shell:ls", 2)

	require.Equal(t, []SyncRequest{
		{Op: TagRecv, Path: "/data/local/tmp/test"},
		{Op: TagQuit, Path: ""},
	}, d.SyncRequests().Snapshot())
}

func TestSyncUnrecognizedOpIgnored(t *testing.T) {
	d := startDaemon(t)
	c := dialDaemon(t, d, defaultBanner)
	c.open("sync:", 1)

	c.writeSyncRequest(MakeTag("LIST"), "/data/local/tmp")

	// The session must survive the unknown request and still serve a pull.
	c.writeSyncRequest(TagRecv, "/data/local/tmp/test")
	op, length := c.readSyncFrame()
	require.Equal(t, TagData, op)
	_, err := io.CopyN(io.Discard, c.conn, int64(length))
	require.NoError(t, err)
	op, _ = c.readSyncFrame()
	require.Equal(t, TagDone, op)

	require.Equal(t, []SyncRequest{
		{Op: MakeTag("LIST"), Path: "/data/local/tmp"},
		{Op: TagRecv, Path: "/data/local/tmp/test"},
	}, d.SyncRequests().Snapshot())
}

func TestSyncPeerDisconnectMidSession(t *testing.T) {
	d := startDaemon(t)
	c := dialDaemon(t, d, defaultBanner)
	c.open("sync:", 1)

	c.writeSyncRequest(TagSend, pushPath)
	// Hang up in the middle of the data stream; the daemon must tear the
	// connection down and keep serving others.
	c.conn.Close()

	c2 := dialDaemon(t, d, defaultBanner)
	c2.open("root:", 1)
	require.Contains(t, d.Commands().Snapshot(), "root:")
}
