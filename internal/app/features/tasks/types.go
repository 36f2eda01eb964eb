// internal/app/features/tasks/types.go
package tasks

import (
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type todoRequest struct {
	ID        string `json:"id"`
	Text      string `json:"text" validate:"required,max=500" label:"Checklist item"`
	Completed bool   `json:"completed"`
}

type attachmentRequest struct {
	PublicID string `json:"public_id" validate:"required,max=200" label:"public_id"`
	URL      string `json:"url" validate:"required,httpurl" label:"url"`
	Filename string `json:"filename" validate:"max=255" label:"filename"`
	FileType string `json:"file_type" validate:"max=100" label:"file_type"`
	Size     int64  `json:"size" validate:"gte=0" label:"size"`
}

type createRequest struct {
	Title         string              `json:"title" validate:"required,max=200" label:"Title"`
	Description   string              `json:"description" validate:"max=10000" label:"Description"`
	Priority      string              `json:"priority" validate:"omitempty,priority" label:"Priority"`
	DueDate       *time.Time          `json:"due_date" validate:"required" label:"Due date"`
	AssignedTo    []string            `json:"assigned_to" validate:"dive,objectid" label:"Assignee"`
	TodoChecklist []todoRequest       `json:"todo_checklist" validate:"dive" label:"Checklist"`
	Attachments   []attachmentRequest `json:"attachments" validate:"dive" label:"Attachments"`
}

// updateRequest leaves absent fields unchanged. An empty assigned_to or
// todo_checklist array clears the field.
type updateRequest struct {
	Title         *string       `json:"title" validate:"omitnil,max=200" label:"Title"`
	Description   *string       `json:"description" validate:"omitnil,max=10000" label:"Description"`
	Priority      *string       `json:"priority" validate:"omitnil,priority" label:"Priority"`
	DueDate       *time.Time    `json:"due_date" label:"Due date"`
	AssignedTo    []string      `json:"assigned_to" validate:"omitnil,dive,objectid" label:"Assignee"`
	TodoChecklist []todoRequest `json:"todo_checklist" validate:"omitnil,dive" label:"Checklist"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,taskstatus" label:"Status"`
}

type checklistRequest struct {
	TodoChecklist []todoRequest `json:"todo_checklist" validate:"dive" label:"Checklist"`
}

// objectIDs converts validated hex ids. nil stays nil.
func objectIDs(hex []string) []primitive.ObjectID {
	if hex == nil {
		return nil
	}
	out := make([]primitive.ObjectID, 0, len(hex))
	for _, s := range hex {
		if oid, err := primitive.ObjectIDFromHex(s); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func todoItems(in []todoRequest) []models.TodoItem {
	if in == nil {
		return nil
	}
	out := make([]models.TodoItem, 0, len(in))
	for _, it := range in {
		out = append(out, models.TodoItem{ID: it.ID, Text: it.Text, Completed: it.Completed})
	}
	return out
}

func (a attachmentRequest) model() models.Attachment {
	return models.Attachment{
		PublicID: a.PublicID,
		URL:      a.URL,
		Filename: a.Filename,
		FileType: a.FileType,
		Size:     a.Size,
	}
}

func attachments(in []attachmentRequest) []models.Attachment {
	out := make([]models.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, a.model())
	}
	return out
}
