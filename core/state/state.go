// Package state defines the screen state machine and scroll bookkeeping of the shell.
package state

import "fmt"

// Screen represents the page the shell is currently showing.
type Screen int

const (
	// ScreenIntro is the welcome page shown at startup.
	ScreenIntro Screen = iota
	// ScreenMain is the recognition page with preview, report and scrollbar.
	ScreenMain
)

// String returns the string representation of the screen.
func (s Screen) String() string {
	switch s {
	case ScreenIntro:
		return "Intro"
	case ScreenMain:
		return "Main"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// validTransitions defines the allowed screen transitions.
// Key is the current screen, value is a list of valid target screens.
var validTransitions = map[Screen][]Screen{
	ScreenIntro: {ScreenMain},
	ScreenMain:  {}, // Terminal, there is no way back to the intro page
}

// CanTransitionTo checks if moving from the current screen to the target screen is valid.
func (s Screen) CanTransitionTo(target Screen) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransitions returns the list of valid target screens from the current screen.
func (s Screen) ValidTransitions() []Screen {
	return validTransitions[s]
}

// IsTerminal returns true if no further transitions are possible.
func (s Screen) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// CanOpenImage returns true if the screen offers the image picker.
func (s Screen) CanOpenImage() bool {
	return s == ScreenMain
}

// TransitionError represents an invalid screen transition attempt.
type TransitionError struct {
	From   Screen
	To     Screen
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid screen transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid screen transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to Screen, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}

// Machine holds the current screen and enforces the transition table.
type Machine struct {
	current Screen
}

// NewMachine returns a machine positioned on the intro screen.
func NewMachine() *Machine {
	return &Machine{current: ScreenIntro}
}

// Current returns the current screen.
func (m *Machine) Current() Screen {
	return m.current
}

// Transition moves to the target screen or returns a *TransitionError.
func (m *Machine) Transition(target Screen) error {
	if !m.current.CanTransitionTo(target) {
		return NewTransitionError(m.current, target, "")
	}
	m.current = target
	return nil
}
