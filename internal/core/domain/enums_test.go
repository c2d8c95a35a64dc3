// internal/core/domain/enums_test.go
package domain

import (
	"testing"

	"paperflow/internal/testutil"
)

func TestCriticality_IsValid(t *testing.T) {
	tests := []struct {
		value    Criticality
		expected bool
	}{
		{AbortOnFailure, true},
		{DegradeOnFailure, true},
		{Criticality("RETRY"), false},
		{Criticality(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			testutil.AssertEqual(t, tt.value.IsValid(), tt.expected, "criticality validity")
		})
	}
}

func TestRunStatus_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		from     RunStatus
		to       RunStatus
		expected bool
	}{
		{"running to completed", StatusRunning, StatusCompleted, true},
		{"running to terminated early", StatusRunning, StatusTerminatedEarly, true},
		{"running to failed", StatusRunning, StatusFailed, true},
		{"running to running", StatusRunning, StatusRunning, false},
		{"completed to failed", StatusCompleted, StatusFailed, false},
		{"failed to running", StatusFailed, StatusRunning, false},
		{"terminated to completed", StatusTerminatedEarly, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, tt.from.CanTransitionTo(tt.to), tt.expected, "transition")
		})
	}
}

func TestRunStatus_IsTerminal(t *testing.T) {
	testutil.AssertFalse(t, StatusRunning.IsTerminal(), "running")
	testutil.AssertTrue(t, StatusCompleted.IsTerminal(), "completed")
	testutil.AssertTrue(t, StatusTerminatedEarly.IsTerminal(), "terminated")
	testutil.AssertTrue(t, StatusFailed.IsTerminal(), "failed")
}

func TestEventType_IsValid(t *testing.T) {
	for _, e := range []EventType{EventStarted, EventSucceeded, EventFailed} {
		testutil.AssertTrue(t, e.IsValid(), string(e))
	}
	testutil.AssertFalse(t, EventType("SKIPPED").IsValid(), "unknown event type")
}
