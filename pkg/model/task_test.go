package model

import (
	"errors"
	"testing"
	"time"
)

func validPayload() []float64 {
	return []float64{100.0, 10.0, 20.0, 30.0, 1.0}
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr error
	}{
		{"valid", Task{ID: "TASK_1", Priority: 3, Payload: validPayload()}, nil},
		{"empty id", Task{ID: "", Payload: validPayload()}, ErrEmptyTaskID},
		{"short payload", Task{ID: "TASK_2", Payload: []float64{1, 2, 3}}, &PayloadSizeError{Got: 3}},
		{"long payload", Task{ID: "TASK_3", Payload: []float64{1, 2, 3, 4, 5, 6}}, &PayloadSizeError{Got: 6}},
		{"nil payload", Task{ID: "TASK_4"}, &PayloadSizeError{Got: 0}},
		// Priority zero passes validation; only the drain path rejects it.
		{"zero priority", Task{ID: "TASK_5", Priority: 0, Payload: validPayload()}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want %v", tt.wantErr)
			}
			var sizeErr *PayloadSizeError
			if errors.As(tt.wantErr, &sizeErr) {
				var got *PayloadSizeError
				if !errors.As(err, &got) {
					t.Fatalf("Validate() = %v, want PayloadSizeError", err)
				}
				if got.Got != sizeErr.Got {
					t.Errorf("PayloadSizeError.Got = %d, want %d", got.Got, sizeErr.Got)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTask_DeadlineExceeded(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute).UnixMilli()
	future := now.Add(time.Minute).UnixMilli()

	tests := []struct {
		name     string
		deadline *int64
		want     bool
	}{
		{"no deadline", nil, false},
		{"past deadline", &past, true},
		{"future deadline", &future, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{ID: "TASK_1", Deadline: tt.deadline, Payload: validPayload()}
			if got := task.DeadlineExceeded(now); got != tt.want {
				t.Errorf("DeadlineExceeded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_DeadlineTime(t *testing.T) {
	task := Task{ID: "TASK_1"}
	if _, ok := task.DeadlineTime(); ok {
		t.Error("DeadlineTime() ok = true for task without deadline")
	}

	millis := int64(1_700_000_000_000)
	task.Deadline = &millis
	at, ok := task.DeadlineTime()
	if !ok {
		t.Fatal("DeadlineTime() ok = false for task with deadline")
	}
	if at.UnixMilli() != millis {
		t.Errorf("DeadlineTime() = %d, want %d", at.UnixMilli(), millis)
	}
}

func TestRobot_MissingCapabilities(t *testing.T) {
	robot := Robot{ID: "Ford", Capabilities: []string{"heavy_lifting", "navigation"}}

	tests := []struct {
		name     string
		required []string
		want     []string
	}{
		{"all present", []string{"heavy_lifting"}, nil},
		{"none required", nil, nil},
		{"one missing", []string{"delicate_task"}, []string{"delicate_task"}},
		{"mixed", []string{"navigation", "delicate_task", "welding"}, []string{"delicate_task", "welding"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := robot.MissingCapabilities(tt.required)
			if len(got) != len(tt.want) {
				t.Fatalf("MissingCapabilities() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("MissingCapabilities()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}

	if !robot.HasCapabilities([]string{"heavy_lifting", "navigation"}) {
		t.Error("HasCapabilities() = false for fully covered set")
	}
	if robot.HasCapabilities([]string{"welding"}) {
		t.Error("HasCapabilities() = true for missing capability")
	}
}

func TestAssignmentRecord_String(t *testing.T) {
	rec := AssignmentRecord{TaskID: "TASK_1", RobotID: "ROBOT_20"}
	want := "Task TASK_1 assigned to ROBOT_20"
	if got := rec.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
