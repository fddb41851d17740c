package fakeadbd

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Tag is a smart-protocol command identifier: four ASCII bytes read as a
// little-endian 32-bit integer. The same encoding is used for the
// connection-layer commands and the sync sub-protocol operations.
type Tag uint32

const (
	// Connection layer.
	TagConnect Tag = 0x4e584e43 // CNXN
	TagOpen    Tag = 0x4e45504f // OPEN
	TagOkay    Tag = 0x59414b4f // OKAY

	// Sync sub-protocol.
	TagSend Tag = 0x444e4553 // SEND
	TagRecv Tag = 0x56434552 // RECV
	TagQuit Tag = 0x54495551 // QUIT
	TagData Tag = 0x41544144 // DATA
	TagDone Tag = 0x454e4f44 // DONE
)

// MakeTag returns the Tag for a four-character ASCII name such as "CNXN".
// It panics on any other length; tags are protocol constants, not user input.
func MakeTag(name string) Tag {
	if len(name) != 4 {
		panic(fmt.Sprintf("tag %q is not 4 bytes", name))
	}
	return Tag(binary.LittleEndian.Uint32([]byte(name)))
}

// String returns the four-character name of the tag, or a hex rendering if
// any byte is not printable ASCII.
func (t Tag) String() string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(t))
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(t))
		}
	}
	return string(b[:])
}

const (
	headerSize     = 24
	syncHeaderSize = 8

	protocolVersion = 0x01000001
	maxPayloadSize  = 4096

	// defaultBanner is the device identity sent in the connect greeting. Real
	// devices append property key-value pairs after the second colon.
	defaultBanner = "device::"

	// cannedFileData is returned as the content of every pulled file.
	cannedFileData = "hello from fake adbd"
)

// header is the fixed 24-byte message header preceding every connection-layer
// payload.
type header struct {
	command    Tag
	arg0, arg1 uint32
	dataLength uint32
}

// marshalPacket serializes a connection-layer packet. The checksum field is
// always the command word XOR 0xffffffff; peers never validate it against the
// payload in this protocol subset, but it must be present and correct.
func marshalPacket(cmd Tag, arg0, arg1 uint32, payload []byte) []byte {
	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:], uint32(cmd))
	binary.LittleEndian.PutUint32(buf[4:], arg0)
	binary.LittleEndian.PutUint32(buf[8:], arg1)
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[16:], 0)
	binary.LittleEndian.PutUint32(buf[20:], uint32(cmd)^0xffffffff)
	copy(buf[headerSize:], payload)
	return buf
}

// parseHeader extracts the dispatch-relevant fields from a 24-byte header.
// Inbound reserved and checksum words are ignored, matching the real daemon's
// behavior for the exercised subset.
func parseHeader(b []byte) header {
	return header{
		command:    Tag(binary.LittleEndian.Uint32(b[0:])),
		arg0:       binary.LittleEndian.Uint32(b[4:]),
		arg1:       binary.LittleEndian.Uint32(b[8:]),
		dataLength: binary.LittleEndian.Uint32(b[12:]),
	}
}

// readMessage reads one full connection-layer message: the fixed header and
// exactly dataLength payload bytes. Any read error, including a short read on
// either part, is returned as-is for the caller to treat as a closed
// connection.
func readMessage(r io.Reader) (header, []byte, error) {
	var raw [headerSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return header{}, nil, err
	}
	hdr := parseHeader(raw[:])
	if hdr.dataLength == 0 {
		return hdr, nil, nil
	}
	payload := make([]byte, hdr.dataLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return header{}, nil, err
	}
	return hdr, payload, nil
}

// marshalSyncFrame serializes the 8-byte sync sub-protocol frame header.
func marshalSyncFrame(op Tag, length uint32) []byte {
	var buf [syncHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(op))
	binary.LittleEndian.PutUint32(buf[4:], length)
	return buf[:]
}

// readSyncFrame reads one 8-byte sync frame header.
func readSyncFrame(r io.Reader) (Tag, uint32, error) {
	var raw [syncHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return 0, 0, err
	}
	return Tag(binary.LittleEndian.Uint32(raw[0:])), binary.LittleEndian.Uint32(raw[4:]), nil
}
