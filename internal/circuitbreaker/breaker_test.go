package circuitbreaker

import (
	"testing"
	"time"
)

func TestBreaker_AllowWhenClosed(t *testing.T) {
	b := New("model", 3, 100*time.Millisecond)
	if !b.Allow() {
		t.Fatal("expected closed circuit to allow")
	}
}

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b := New("model", 3, 100*time.Millisecond)

	// 2 failures = still closed
	b.RecordFailure()
	b.RecordFailure()
	if !b.Allow() {
		t.Fatal("should still allow before threshold")
	}

	// 3rd failure = open
	b.RecordFailure()
	if b.Allow() {
		t.Fatal("should be open after 3 failures")
	}
	if b.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %v", b.State())
	}
}

func TestBreaker_OpenToHalfOpenAfterDuration(t *testing.T) {
	b := New("model", 2, 50*time.Millisecond)

	b.RecordFailure()
	b.RecordFailure()
	if b.Allow() {
		t.Fatal("should be open")
	}

	// Wait for open duration.
	time.Sleep(60 * time.Millisecond)

	// Should transition to half-open and allow one probe.
	if !b.Allow() {
		t.Fatal("should allow probe in half-open")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("expected StateHalfOpen, got %v", b.State())
	}

	// Second request while half-open should be rejected.
	if b.Allow() {
		t.Fatal("should reject second request in half-open")
	}
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	b := New("model", 2, 50*time.Millisecond)

	b.RecordFailure()
	b.RecordFailure()
	time.Sleep(60 * time.Millisecond)
	b.Allow() // Transitions to half-open

	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Fatalf("expected StateClosed after success, got %v", b.State())
	}
	if !b.Allow() {
		t.Fatal("should allow after recovery")
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := New("model", 2, 50*time.Millisecond)

	b.RecordFailure()
	b.RecordFailure()
	time.Sleep(60 * time.Millisecond)
	b.Allow() // Transitions to half-open

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected StateOpen after half-open failure, got %v", b.State())
	}
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := New("model", 3, 100*time.Millisecond)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	// Should not trip with only 1 more failure (counter was reset).
	b.RecordFailure()
	if !b.Allow() {
		t.Fatal("should still be closed after reset")
	}
}

func TestBreaker_DefaultsApplied(t *testing.T) {
	b := New("model", 0, 0)
	if b.threshold != 5 {
		t.Errorf("expected default threshold 5, got %d", b.threshold)
	}
	if b.openDuration != 30*time.Second {
		t.Errorf("expected default open duration 30s, got %v", b.openDuration)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half_open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
