package domain

import (
	"strings"
	"time"
)

// TaskRow is a task as stored in the tasks table and served by the REST API.
type TaskRow struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Category    Category   `json:"category"`
	Completed   bool       `json:"completed"`
	Priority    *Priority  `json:"priority"`
	DueDate     *Date      `json:"due_date"`
	OrderIndex  int        `json:"order_index"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskInput is the body accepted by create and full update.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	DueDate     *Date    `json:"due_date"`
}

// Normalize trims the title, defaults the category and validates the enums.
func (in *TaskInput) Normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrEmptyTitle
	}
	if in.Category == "" {
		in.Category = Inbox
	}
	if !in.Category.Valid() {
		return ErrInvalidCategory
	}
	if !in.Priority.Valid() {
		return ErrInvalidPriority
	}
	if in.DueDate != nil && in.DueDate.IsZero() {
		in.DueDate = nil
	}
	return nil
}

// ReorderInput is the body of the reorder endpoint.
type ReorderInput struct {
	Category Category `json:"category"`
	TaskIDs  []int64  `json:"taskIds"`
}
