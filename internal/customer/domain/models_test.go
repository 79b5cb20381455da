package domain

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	statuses := []Status{StatusTrial, StatusActive, StatusSuspended, StatusCancelled}
	allowed := map[[2]Status]bool{
		{StatusTrial, StatusActive}:        true,
		{StatusTrial, StatusCancelled}:     true,
		{StatusActive, StatusSuspended}:    true,
		{StatusActive, StatusCancelled}:    true,
		{StatusSuspended, StatusActive}:    true,
		{StatusSuspended, StatusCancelled}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]Status{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	for _, to := range []Status{StatusTrial, StatusActive, StatusSuspended, StatusCancelled} {
		if StatusCancelled.CanTransitionTo(to) {
			t.Errorf("cancelled -> %s should be rejected", to)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusTrial, StatusActive, StatusSuspended, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []Status{"", "deleted", "Trial", "ACTIVE"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestInvalidTransitionErrorMatchesSentinel(t *testing.T) {
	err := &InvalidTransitionError{From: StatusCancelled, To: StatusActive}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatal("InvalidTransitionError should match ErrInvalidTransition")
	}
	if err.Error() != "invalid_transition: cancelled -> active" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"clinic@example.com", "a@b", "admin@clinic.example.jp"}
	for _, email := range valid {
		if !ValidEmail(email) {
			t.Errorf("%q should be valid", email)
		}
	}
	invalid := []string{"", "no-at-sign", "@leading", "trailing@", "sp ace@example.com"}
	for _, email := range invalid {
		if ValidEmail(email) {
			t.Errorf("%q should be invalid", email)
		}
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID("not-a-number"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("err = %v, want ErrInvalidID", err)
	}
	if _, err := ParseID(""); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("err = %v, want ErrInvalidID", err)
	}
	id, err := ParseID("1234567890123456789")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.String() != "1234567890123456789" {
		t.Fatalf("round trip mismatch: %s", id)
	}
}
