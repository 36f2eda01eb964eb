// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses.
const (
	TaskPending    = "Pending"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
)

// Task priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []string{TaskPending, TaskInProgress, TaskCompleted}

// TaskPriorities lists every priority in display order.
var TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// TodoItem is one entry of a task's checklist.
type TodoItem struct {
	ID        string `bson:"id" json:"id"`
	Text      string `bson:"text" json:"text"`
	Completed bool   `bson:"completed" json:"completed"`
}

// Attachment references a file held by the external object store.
// Only the metadata lives here.
type Attachment struct {
	PublicID string `bson:"public_id" json:"public_id"`
	URL      string `bson:"url" json:"url"`
	Filename string `bson:"filename" json:"filename"`
	FileType string `bson:"file_type" json:"file_type"`
	Size     int64  `bson:"size,omitempty" json:"size,omitempty"`
}

// Task is a unit of work assigned to one or more users.
type Task struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Priority      string               `bson:"priority" json:"priority"`
	Status        string               `bson:"status" json:"status"`
	DueDate       time.Time            `bson:"due_date" json:"due_date"`
	AssignedTo    []primitive.ObjectID `bson:"assigned_to" json:"assigned_to"`
	CreatedBy     primitive.ObjectID   `bson:"created_by" json:"created_by"`
	TodoChecklist []TodoItem           `bson:"todo_checklist" json:"todo_checklist"`
	Progress      int                  `bson:"progress" json:"progress"`
	Attachments   []Attachment         `bson:"attachments" json:"attachments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsAssigned reports whether userID is among the task's assignees.
func (t Task) IsAssigned(userID primitive.ObjectID) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// CompletedTodoCount returns the number of checked checklist items.
func (t Task) CompletedTodoCount() int {
	n := 0
	for _, item := range t.TodoChecklist {
		if item.Completed {
			n++
		}
	}
	return n
}

// IsValidTaskStatus reports whether s is a known task status.
func IsValidTaskStatus(s string) bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is a known task priority.
func IsValidPriority(p string) bool {
	for _, v := range TaskPriorities {
		if v == p {
			return true
		}
	}
	return false
}
