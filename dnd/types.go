package dnd

import (
	"context"

	"github.com/alexalex89/task-management/domain"
)

// Board is the part of the task store a drag session drives.
type Board interface {
	// ByCategory returns the list exactly as it is displayed.
	ByCategory(c domain.Category) []domain.Task
	Move(ctx context.Context, id string, c domain.Category) (*domain.Task, error)
	Reorder(ctx context.Context, c domain.Category, ids []string) error
}

// Counter supplies the sidebar badge counts.
type Counter interface {
	Counts() map[domain.Category]int
}
