// Package task decouples long-running verification work from the
// request/response cycle: callers get an opaque handle immediately and
// poll for the terminal result.
package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/scdesign/factcheck/internal/acquire"
	"github.com/scdesign/factcheck/internal/model"
)

// Runner is one background pipeline invocation
type Runner func(ctx context.Context) (*model.TaskResult, error)

// Tracker issues task handles and records terminal outcomes. A task
// transitions exactly once: processing -> completed or processing -> error.
type Tracker struct {
	store Store
}

// NewTracker creates a tracker over the given store
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Submit registers a processing task and schedules run in the
// background. Returns the task id without waiting.
func (t *Tracker) Submit(run Runner) string {
	id := uuid.NewString()
	created := time.Now().UTC()
	t.store.Put(&model.Task{ID: id, Status: model.TaskProcessing, CreatedAt: created})

	go func() {
		// Background work outlives the originating request; it gets its
		// own root context.
		result, err := run(context.Background())
		if err != nil {
			slog.Error("background task failed", "task_id", id, "error", err)
			t.store.Put(&model.Task{ID: id, Status: model.TaskError, Error: err.Error(), CreatedAt: created})
			return
		}
		slog.Info("background task completed", "task_id", id)
		t.store.Put(&model.Task{ID: id, Status: model.TaskCompleted, Result: result, CreatedAt: created})
	}()

	return id
}

// Get looks up a task by handle
func (t *Tracker) Get(id string) (*model.Task, bool) {
	return t.store.Get(id)
}

// StartSweeper schedules the periodic cleanup: expired tasks and stale
// working files. Runs for the life of the process.
func StartSweeper(store Store, uploadDir string, fileMaxAge time.Duration, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		slog.Debug("sweep started")
		store.Sweep()
		acquire.PurgeStale(uploadDir, fileMaxAge)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
