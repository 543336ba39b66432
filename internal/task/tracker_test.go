package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scdesign/factcheck/internal/model"
)

func waitForTerminal(t *testing.T, tr *Tracker, id string) *model.Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if task, ok := tr.Get(id); ok && task.Status != model.TaskProcessing {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task never reached a terminal state")
	return nil
}

func TestSubmit_ReturnsImmediately(t *testing.T) {
	tr := NewTracker(NewMemoryStore(time.Hour))
	release := make(chan struct{})

	start := time.Now()
	id := tr.Submit(func(context.Context) (*model.TaskResult, error) {
		<-release
		return &model.TaskResult{}, nil
	})
	elapsed := time.Since(start)

	if elapsed > 100*time.Millisecond {
		t.Errorf("Submit blocked for %v", elapsed)
	}
	task, ok := tr.Get(id)
	if !ok {
		t.Fatal("Task not registered")
	}
	if task.Status != model.TaskProcessing {
		t.Errorf("Status = %s, want processing", task.Status)
	}

	close(release)
	waitForTerminal(t, tr, id)
}

func TestSubmit_CompletionRecordsPayload(t *testing.T) {
	tr := NewTracker(NewMemoryStore(time.Hour))

	id := tr.Submit(func(context.Context) (*model.TaskResult, error) {
		return &model.TaskResult{Transcription: "hello world"}, nil
	})

	task := waitForTerminal(t, tr, id)
	if task.Status != model.TaskCompleted {
		t.Fatalf("Status = %s, want completed", task.Status)
	}
	if task.Result == nil || task.Result.Transcription != "hello world" {
		t.Errorf("Result payload missing: %+v", task.Result)
	}
}

func TestSubmit_FailureRecordsError(t *testing.T) {
	tr := NewTracker(NewMemoryStore(time.Hour))

	id := tr.Submit(func(context.Context) (*model.TaskResult, error) {
		return nil, errors.New("acquisition blocked")
	})

	task := waitForTerminal(t, tr, id)
	if task.Status != model.TaskError {
		t.Fatalf("Status = %s, want error", task.Status)
	}
	if task.Error != "acquisition blocked" {
		t.Errorf("Error = %q", task.Error)
	}
}

func TestGet_UnknownID(t *testing.T) {
	tr := NewTracker(NewMemoryStore(time.Hour))
	if _, ok := tr.Get("nope"); ok {
		t.Error("Expected not-found for unknown id")
	}
}

func TestSweep_DropsExpiredTasks(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	store.Put(&model.Task{ID: "old", Status: model.TaskCompleted, CreatedAt: time.Now().UTC()})

	time.Sleep(40 * time.Millisecond)
	store.Sweep()

	if _, ok := store.Get("old"); ok {
		t.Error("Expired task should be gone after sweep")
	}
}

func TestTaskIDsAreUnique(t *testing.T) {
	tr := NewTracker(NewMemoryStore(time.Hour))
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := tr.Submit(func(context.Context) (*model.TaskResult, error) {
			return &model.TaskResult{}, nil
		})
		if seen[id] {
			t.Fatalf("Duplicate task id %s", id)
		}
		seen[id] = true
	}
}
