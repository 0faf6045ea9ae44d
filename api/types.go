package api

import (
	"context"

	"github.com/alexalex89/task-management/domain"
)

// Repository abstracts task persistence for handlers. *postgres.Repository
// and *storage.Cache implement it.
type Repository interface {
	// ListTasks returns every task, or the tasks of category when it is set.
	ListTasks(ctx context.Context, category domain.Category) ([]domain.TaskRow, error)
	CreateTask(ctx context.Context, in domain.TaskInput) (domain.TaskRow, error)
	// UpdateTask replaces the editable fields of task id.
	UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (domain.TaskRow, error)
	ToggleTask(ctx context.Context, id int64) (domain.TaskRow, error)
	DeleteTask(ctx context.Context, id int64) error
	// ReorderTasks sets each listed task's order_index to its position.
	ReorderTasks(ctx context.Context, category domain.Category, ids []int64) error
	Stats(ctx context.Context) ([]domain.CategoryStats, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

const (
	msgInternal    = "Internal server error"
	msgTaskMissing = "Task not found"
	msgNoRoute     = "Route not found"
	msgBroke       = "Something broke!"
	msgRateLimited = "Too many requests from this IP, please try again later."
	msgDeleted     = "Task deleted successfully"
	msgReordered   = "Tasks reordered successfully"
)
