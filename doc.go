// Package fakeadbd implements an emulated ADB device daemon for exercising a
// real adb client/server pair as a black box.
//
// The daemon listens on an ephemeral loopback TCP port and speaks just enough
// of the smart protocol for a real adb server to connect, handshake, and
// round-trip commands against it: the connect greeting, the OPEN/OKAY
// stream-open exchange, and the sync file-transfer sub-protocol
// (SEND/RECV/DATA/DONE/QUIT). Nothing is executed and no files are written;
// instead every OPEN destination and every sync request is recorded in
// thread-safe logs that the caller can snapshot and clear between assertions.
//
// A recorded entry is guaranteed to be visible to the caller before the
// corresponding acknowledgement packet reaches the wire, so waiting for the
// external client process to exit is a sufficient synchronization point.
//
// Transport negotiation variants, authentication, and compression are not
// implemented.
package fakeadbd
