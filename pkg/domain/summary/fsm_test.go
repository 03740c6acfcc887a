package summary

import (
	"errors"
	"testing"
)

func TestMachine_Lifecycle(t *testing.T) {
	m, err := NewMachine(7)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if m.Current() != StatusUnset {
		t.Fatalf("initial state = %s", m.Current())
	}

	steps := []struct {
		event string
		want  Status
	}{
		{EventRequest, StatusLoading},
		{EventResolve, StatusResolved},
		{EventRequest, StatusLoading},
		{EventFail, StatusFailed},
		{EventRequest, StatusLoading},
	}
	for _, s := range steps {
		if err := m.Transition(s.event); err != nil {
			t.Fatalf("%s: %v", s.event, err)
		}
		if m.Current() != s.want {
			t.Fatalf("after %s: state = %s, want %s", s.event, m.Current(), s.want)
		}
	}
}

func TestMachine_RejectsDuplicateRequest(t *testing.T) {
	m, err := NewMachine(1)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if err := m.Transition(EventRequest); err != nil {
		t.Fatalf("request: %v", err)
	}

	err = m.Transition(EventRequest)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if te.From != StatusLoading {
		t.Errorf("From = %s", te.From)
	}
	if m.Current() != StatusLoading {
		t.Errorf("state changed to %s", m.Current())
	}
}

func TestMachine_CannotSettleWithoutRequest(t *testing.T) {
	m, _ := NewMachine(1)
	if err := m.Transition(EventResolve); err == nil {
		t.Fatal("resolve from unset should fail")
	}
	if err := m.Transition(EventFail); err == nil {
		t.Fatal("fail from unset should fail")
	}
}

func TestEntryDisplay(t *testing.T) {
	tests := []struct {
		entry Entry
		want  string
	}{
		{Entry{}, ""},
		{Entry{Status: StatusLoading}, LoadingText},
		{Entry{Status: StatusFailed, Text: "ignored"}, FailedText},
		{Entry{Status: StatusResolved, Text: "Short."}, "Short."},
	}
	for _, tt := range tests {
		if got := tt.entry.Display(); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.entry, got, tt.want)
		}
	}
}
