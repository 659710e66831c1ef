package core

import (
	"context"
	"testing"
)

// TestTaskID_StringAndIsZero verifies TaskID zero-state and string behavior
// Given: A zero TaskID and a generated TaskID
// When: IsZero and String are called
// Then: Zero ID reports true and generated ID is non-zero with non-empty string
func TestTaskID_StringAndIsZero(t *testing.T) {
	// Arrange
	var zero TaskID

	// Act and Assert
	if !zero.IsZero() {
		t.Fatal("zero TaskID should report IsZero() == true")
	}

	// Act
	id := GenerateTaskID()

	// Assert
	if id.IsZero() {
		t.Fatal("generated TaskID should not be zero")
	}
	if len(id.String()) != 36 {
		t.Fatalf("TaskID.String() = %q, want a 36 character UUID", id.String())
	}
	if other := GenerateTaskID(); other == id {
		t.Fatal("two generated TaskIDs are equal")
	}
}

// TestCurrentTaskInfo verifies extracting task info from context
// Given: A plain context and a context containing task info
// When: CurrentTaskInfo is called
// Then: It reports false for the plain context and the stored info otherwise
func TestCurrentTaskInfo(t *testing.T) {
	// Arrange, Act and Assert - plain context
	if _, ok := CurrentTaskInfo(context.Background()); ok {
		t.Fatal("CurrentTaskInfo(background) ok = true, want false")
	}

	// Arrange
	info := TaskInfo{ID: GenerateTaskID(), Name: "job", Manager: "m"}
	ctx := context.WithValue(context.Background(), taskInfoKey, info)

	// Act and Assert
	if got, ok := CurrentTaskInfo(ctx); !ok || got != info {
		t.Fatalf("CurrentTaskInfo(ctx) = %+v, %v, want %+v, true", got, ok, info)
	}
}

func TestTaskOutcomeAndDrainOutcomeStrings(t *testing.T) {
	cases := map[string]string{
		TaskOutcomeCompleted.String(): "completed",
		TaskOutcomeFailed.String():    "failed",
		TaskOutcomeAbandoned.String(): "abandoned",
		DrainedCompletely.String():    "drained",
		DrainTimedOutForced.String():  "timed_out_forced",
		StateDraining.String():        "draining",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
