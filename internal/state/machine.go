package state

import (
	"fmt"

	ncerr "mcproxy/internal/errors"
	"mcproxy/internal/packet"
)

// Machine tracks one connection's phase. It is owned by the session
// goroutine and is not safe for concurrent use.
type Machine struct {
	cur State
}

// NewMachine returns a machine in Handshake.
func NewMachine() *Machine { return &Machine{} }

// State returns the current phase.
func (m *Machine) State() State { return m.cur }

// Transition moves to the next phase. An impossible move leaves the
// machine where it is.
func (m *Machine) Transition(to State) error {
	if !CanTransition(m.cur, to) {
		return fmt.Errorf("state: cannot move from %s to %s", m.cur, to)
	}
	m.cur = to
	return nil
}

// Accept checks that kind may travel in dir now. An illegal packet moves
// the machine to Closed and returns a ProtocolViolation.
func (m *Machine) Accept(dir packet.Direction, kind packet.Kind) error {
	if m.cur == Closed {
		return ncerr.ErrSessionClosed
	}
	if Legal(m.cur, dir, kind) {
		return nil
	}
	from := m.cur
	m.cur = Closed
	return ncerr.Violation(from.String(), kind.String(),
		fmt.Sprintf("%s packet not allowed in this state", dir))
}

// Close moves to Closed. It reports whether this call did the move.
func (m *Machine) Close() bool {
	if m.cur == Closed {
		return false
	}
	m.cur = Closed
	return true
}
