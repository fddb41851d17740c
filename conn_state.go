package fakeadbd

import "fmt"

// connState represents a small per-connection finite state machine. It has
// the following transitions:
// ∅              → Init
// Init           → HandshakeSent
// HandshakeSent  → InSync
// InSync         → HandshakeSent
// any state      → Closed
//
// The meaning of each state is described above the state's definition below.
type connState string

const (
	// Init is the state of a freshly accepted connection before the connect
	// greeting has been written to the peer.
	connStateInit connState = "init"
	// HandshakeSent is the steady state: the greeting is out and the
	// connection loop is reading connection-layer messages.
	connStateHandshakeSent connState = "handshake-sent"
	// InSync is entered when an OPEN names the sync service; the connection
	// is running the nested file-transfer exchange and connection-layer
	// dispatch is suspended until it finishes.
	connStateInSync connState = "in-sync"
	// Closed is terminal: the peer went away, a read was malformed, or the
	// daemon is shutting down.
	connStateClosed connState = "closed"
)

var validConnTransitions = map[connState][]connState{
	connStateInit: {
		connStateHandshakeSent,
		connStateClosed,
	},
	connStateHandshakeSent: {
		connStateInSync,
		connStateClosed,
	},
	connStateInSync: {
		connStateHandshakeSent,
		connStateClosed,
	},
	connStateClosed: {},
}

func (s *connState) canTransitionTo(state connState) error {
	for _, target := range validConnTransitions[*s] {
		if target == state {
			return nil
		}
	}
	return fmt.Errorf("unable to transition from %s to %s", *s, state)
}

func (s *connState) transitionTo(state connState) error {
	if err := s.canTransitionTo(state); err != nil {
		return err
	}
	*s = state
	return nil
}

// mustTransitionTo is for transitions the connection loop performs at
// statically known points; a failure there is a programming error.
func (s *connState) mustTransitionTo(state connState) {
	if err := s.transitionTo(state); err != nil {
		panic(fmt.Sprintf("BUG: %v", err))
	}
}
