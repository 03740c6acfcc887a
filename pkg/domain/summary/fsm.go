// Package summary holds the on-demand summary lifecycle of a feedback item.
package summary

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration. They mirror the Status values.
const (
	StateUnset    = "unset"
	StateLoading  = "loading"
	StateResolved = "resolved"
	StateFailed   = "failed"
)

func init() {
	stateMap := map[string]Status{
		StateUnset:    StatusUnset,
		StateLoading:  StatusLoading,
		StateResolved: StatusResolved,
		StateFailed:   StatusFailed,
	}
	for fsmState, status := range stateMap {
		if fsmState != string(status) {
			panic(fmt.Sprintf("FSM state %q does not match Status %q", fsmState, status))
		}
	}
}

// MachineContext carries the item the machine belongs to.
type MachineContext struct {
	FeedbackID int
}

// Machine drives one item through unset → loading → resolved|failed.
// A fresh request from a terminal state re-enters loading; a request while
// loading is rejected, which is how duplicate fetches are detected.
type Machine struct {
	interpreter *statekit.Interpreter[MachineContext]
}

// NewMachine builds a machine in the unset state.
func NewMachine(feedbackID int) (*Machine, error) {
	builder := statekit.NewMachine[MachineContext]("summary-machine").
		WithInitial(statekit.StateID(StateUnset)).
		WithContext(MachineContext{FeedbackID: feedbackID})

	builder.State(StateUnset).
		On(EventRequest).Target(StateLoading).
		Done()

	builder.State(StateLoading).
		On(EventResolve).Target(StateResolved).
		On(EventFail).Target(StateFailed).
		Done()

	builder.State(StateResolved).
		On(EventRequest).Target(StateLoading).
		Done()

	builder.State(StateFailed).
		On(EventRequest).Target(StateLoading).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build summary machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &Machine{interpreter: interpreter}, nil
}

// Transition sends an event and reports an error if the state did not move.
func (m *Machine) Transition(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if m.Current() != before {
		return nil
	}
	return &TransitionError{Event: event, From: before}
}

// Current returns the current state.
func (m *Machine) Current() Status {
	return Status(m.interpreter.State().Value)
}

// TransitionError reports an event the current state does not accept.
type TransitionError struct {
	Event string
	From  Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("summary: event %q not allowed in state %q", e.Event, e.From)
}
