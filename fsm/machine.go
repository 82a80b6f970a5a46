// Package fsm provides a small explicit finite-state machine used for the
// connection and capture lifecycles. States and events are named, transitions
// are declared up front, and the machine records its transition history so
// state-dependent behavior can be unit-tested away from any transport or
// rendering concern.
package fsm

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

var (
	// ErrInvalidEvent is returned when an event is not defined for the current state.
	ErrInvalidEvent = errors.New("invalid event for current state")
	// ErrUnknownState is returned when the machine is in a state the spec does not define.
	ErrUnknownState = errors.New("state not defined in spec")
)

// TimeFunc returns the current time. Override for deterministic tests.
type TimeFunc func() time.Time

// Spec declares the states and transitions of a machine.
type Spec struct {
	Entry  string
	States map[string]State
}

// State defines the outgoing transitions of a single state, keyed by event.
type State struct {
	OnEvent map[string]string
}

// Transition records a single applied transition.
type Transition struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// Machine tracks the current state of one spec instance. It is safe for
// concurrent use.
type Machine struct {
	mu      sync.Mutex
	spec    Spec
	current string
	history []Transition
	now     TimeFunc
}

// New creates a machine positioned at the spec's entry state.
func New(spec Spec) *Machine {
	return &Machine{spec: spec, current: spec.Entry, now: time.Now}
}

// WithTimeFunc sets a custom time function for deterministic tests.
func (m *Machine) WithTimeFunc(fn TimeFunc) *Machine {
	m.now = fn
	return m
}

// Current returns the name of the current state.
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Is reports whether the machine is in the given state.
func (m *Machine) Is(state string) bool {
	return m.Current() == state
}

// Fire applies an event, transitioning to the declared target state.
func (m *Machine) Fire(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.spec.States[m.current]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, m.current)
	}
	target, ok := state.OnEvent[event]
	if !ok {
		return fmt.Errorf("%w: event %q in state %q (available: %v)",
			ErrInvalidEvent, event, m.current, availableLocked(state))
	}

	m.history = append(m.history, Transition{
		From: m.current, To: target, Event: event, Timestamp: m.now(),
	})
	m.current = target
	return nil
}

// Can reports whether the event is valid in the current state.
func (m *Machine) Can(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.spec.States[m.current]
	if !ok {
		return false
	}
	_, ok = state.OnEvent[event]
	return ok
}

// Available returns the sorted set of valid events for the current state.
func (m *Machine) Available() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.spec.States[m.current]
	if !ok {
		return nil
	}
	return availableLocked(state)
}

// History returns a copy of the applied transitions.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

func availableLocked(state State) []string {
	events := make([]string, 0, len(state.OnEvent))
	for e := range state.OnEvent {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}
