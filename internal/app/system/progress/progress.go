// Package progress derives a task's progress and status from its checklist.
package progress

import (
	"math"

	"github.com/dalemusser/taskhub/internal/domain/models"
)

// Percent returns round(done/total*100), or 0 for an empty checklist.
func Percent(items []models.TodoItem) int {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(items)) * 100))
}

// StatusFor maps a progress percentage to a task status.
func StatusFor(pct int) string {
	switch {
	case pct >= 100:
		return models.TaskCompleted
	case pct > 0:
		return models.TaskInProgress
	default:
		return models.TaskPending
	}
}

// ApplyChecklist replaces t's checklist and recomputes progress and status.
func ApplyChecklist(t *models.Task, items []models.TodoItem) {
	t.TodoChecklist = items
	t.Progress = Percent(items)
	t.Status = StatusFor(t.Progress)
}

// ApplyStatus sets t's status. Completing a task checks every item and sets
// progress to 100; other statuses leave the checklist untouched.
func ApplyStatus(t *models.Task, status string) {
	t.Status = status
	if status != models.TaskCompleted {
		return
	}
	for i := range t.TodoChecklist {
		t.TodoChecklist[i].Completed = true
	}
	t.Progress = 100
}
