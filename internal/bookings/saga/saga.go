// Package saga drives the hold->confirm sequence against the hotel service
// as an explicit state machine: a state value plus a transition table mapping
// (state, event) to the next state and whether compensation runs. Keeping the
// table separate from transport details makes the compensation logic
// auditable and testable on its own.
package saga

import (
	"context"
	"fmt"

	"roombook/pkg/logger"
)

type State string

type Event string

const (
	StatePending   State = "pending"
	StateHeld      State = "held"
	StateConfirmed State = "confirmed"
	StateCancelled State = "cancelled"
)

const (
	EventHoldSucceeded    Event = "hold_succeeded"
	EventHoldFailed       Event = "hold_failed"
	EventConfirmSucceeded Event = "confirm_succeeded"
	EventConfirmFailed    Event = "confirm_failed"
)

type transition struct {
	next       State
	compensate bool
}

// transitions is the complete saga protocol. Confirmed and cancelled are
// terminal: no event maps out of them. Compensation (release) runs only when
// a hold has already landed on the remote side.
var transitions = map[State]map[Event]transition{
	StatePending: {
		EventHoldSucceeded: {next: StateHeld},
		EventHoldFailed:    {next: StateCancelled},
	},
	StateHeld: {
		EventConfirmSucceeded: {next: StateConfirmed},
		EventConfirmFailed:    {next: StateCancelled, compensate: true},
	},
}

// Operation is one remote call bound into the saga; the orchestrator wraps
// each gateway call (with its retry policy) into this shape.
type Operation func(ctx context.Context) error

// Execution is a single run of the reservation saga for one requestId.
type Execution struct {
	hold    Operation
	confirm Operation
	release Operation

	state State
	cause error
	log   *logger.Logger
}

func NewExecution(hold, confirm, release Operation, log *logger.Logger) *Execution {
	return &Execution{
		hold:    hold,
		confirm: confirm,
		release: release,
		state:   StatePending,
		log:     log,
	}
}

// Run executes the forward steps in order, feeding their outcomes through
// the transition table, and returns the terminal state. Saga failure is not
// an error here: the caller reads the terminal state and Cause.
func (e *Execution) Run(ctx context.Context) State {
	if err := e.hold(ctx); err != nil {
		e.apply(ctx, EventHoldFailed, err)
		return e.state
	}
	e.apply(ctx, EventHoldSucceeded, nil)

	if err := e.confirm(ctx); err != nil {
		e.apply(ctx, EventConfirmFailed, err)
		return e.state
	}
	e.apply(ctx, EventConfirmSucceeded, nil)

	return e.state
}

// Cause returns the failure that drove the saga to cancelled, or nil.
func (e *Execution) Cause() error {
	return e.cause
}

// State returns the current state; terminal once Run has returned.
func (e *Execution) State() State {
	return e.state
}

func (e *Execution) apply(ctx context.Context, event Event, cause error) {
	t, ok := transitions[e.state][event]
	if !ok {
		// Protocol bug: the forward steps emitted an event the table does
		// not allow from this state. Fail the saga rather than guess.
		e.cause = fmt.Errorf("illegal saga transition: %s event in state %s", event, e.state)
		e.log.Error("Illegal saga transition", "state", string(e.state), "event", string(event))
		e.state = StateCancelled
		return
	}

	if cause != nil && e.cause == nil {
		e.cause = cause
	}

	if t.compensate {
		e.compensateHold(ctx)
	}

	e.state = t.next
}

// compensateHold issues the best-effort release. Its failure is swallowed by
// design: the saga must terminate, and the stale hold is picked up by the
// hotel service's reconciliation sweep.
func (e *Execution) compensateHold(ctx context.Context) {
	if e.release == nil {
		return
	}
	if err := e.release(ctx); err != nil {
		e.log.Warn("Compensating release failed, leaving stale hold for reconciliation",
			"error", err,
		)
	}
}
