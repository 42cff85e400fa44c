package state

import (
	"errors"
	"testing"
)

func TestScreen_String(t *testing.T) {
	tests := []struct {
		screen   Screen
		expected string
	}{
		{ScreenIntro, "Intro"},
		{ScreenMain, "Main"},
		{Screen(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.screen.String(); got != tt.expected {
				t.Errorf("Screen.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScreen_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     Screen
		to       Screen
		expected bool
	}{
		{"Intro -> Main", ScreenIntro, ScreenMain, true},
		{"Intro -> Intro (invalid)", ScreenIntro, ScreenIntro, false},
		{"Main -> Intro (invalid)", ScreenMain, ScreenIntro, false},
		{"Main -> Main (invalid)", ScreenMain, ScreenMain, false},
		{"Unknown -> Main (invalid)", Screen(7), ScreenMain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScreen_IsTerminal(t *testing.T) {
	if ScreenIntro.IsTerminal() {
		t.Error("Intro should not be terminal")
	}
	if !ScreenMain.IsTerminal() {
		t.Error("Main should be terminal")
	}
}

func TestScreen_CanOpenImage(t *testing.T) {
	if ScreenIntro.CanOpenImage() {
		t.Error("Intro should not open images")
	}
	if !ScreenMain.CanOpenImage() {
		t.Error("Main should open images")
	}
}

func TestMachine_StartsOnIntroAndMovesOnce(t *testing.T) {
	m := NewMachine()
	if m.Current() != ScreenIntro {
		t.Fatalf("Current() = %v, want Intro", m.Current())
	}

	if err := m.Transition(ScreenMain); err != nil {
		t.Fatalf("Transition(Main) error = %v", err)
	}
	if m.Current() != ScreenMain {
		t.Fatalf("Current() = %v, want Main", m.Current())
	}

	err := m.Transition(ScreenMain)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("second Transition(Main) error = %v, want *TransitionError", err)
	}
	if te.From != ScreenMain || te.To != ScreenMain {
		t.Errorf("TransitionError = %+v", te)
	}

	if err := m.Transition(ScreenIntro); err == nil {
		t.Error("Transition(Intro) from Main should fail")
	}
	if m.Current() != ScreenMain {
		t.Errorf("Current() = %v after failed transitions, want Main", m.Current())
	}
}

func TestTransitionError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransitionError
		expected string
	}{
		{
			"with reason",
			NewTransitionError(ScreenMain, ScreenIntro, "not allowed"),
			"invalid screen transition from Main to Intro: not allowed",
		},
		{
			"without reason",
			NewTransitionError(ScreenMain, ScreenIntro, ""),
			"invalid screen transition from Main to Intro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}
