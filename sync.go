package fakeadbd

import "io"

// serveSync runs the file-transfer exchange on a connection whose peer has
// opened the sync service. It returns true if the session ended with QUIT and
// the connection-layer loop should resume, false if the connection is done.
//
// File content is read and discarded; only the transfer's existence and its
// path/mode metadata are observable, through the sync request log.
func (c *connection) serveSync() bool {
	for {
		op, pathLen, err := readSyncFrame(c.sock)
		if err != nil {
			return false
		}
		path := make([]byte, pathLen)
		if _, err := io.ReadFull(c.sock, path); err != nil {
			return false
		}

		// Every request is recorded before it is acted on, QUIT included.
		req := SyncRequest{Op: op, Path: string(path)}
		c.l.Info("sync request", "op", op, "path", req.Path)
		c.d.syncRequests.append(req)

		switch op {
		case TagSend:
			if !c.drainSend() {
				return false
			}
		case TagRecv:
			if !c.sendCanned() {
				return false
			}
		case TagQuit:
			return true
		default:
			c.l.Warn("ignoring unrecognized sync operation", "op", op)
		}
	}
}

// drainSend consumes the data frames of a SEND until DONE, then acknowledges
// with a zero-length sync OKAY frame.
func (c *connection) drainSend() bool {
	for {
		sub, length, err := readSyncFrame(c.sock)
		if err != nil {
			return false
		}
		if sub == TagDone {
			_, err := c.sock.Write(marshalSyncFrame(TagOkay, 0))
			return err == nil
		}
		if _, err := io.CopyN(io.Discard, c.sock, int64(length)); err != nil {
			return false
		}
	}
}

// sendCanned answers a RECV with a fixed diagnostic payload followed by the
// completion frame.
func (c *connection) sendCanned() bool {
	data := []byte(cannedFileData)
	frame := append(marshalSyncFrame(TagData, uint32(len(data))), data...)
	if _, err := c.sock.Write(frame); err != nil {
		return false
	}
	_, err := c.sock.Write(marshalSyncFrame(TagDone, 0))
	return err == nil
}
