package dnd

import (
	"context"

	"github.com/alexalex89/task-management/domain"
)

// Sidebar is the category navigation. Its buttons are drop targets when
// OnTaskDrop is set.
type Sidebar struct {
	Active domain.Category

	OnCategoryChange func(domain.Category)
	OnTaskDrop       func(ctx context.Context, taskID string, target domain.Category) error
}

// NewSidebar returns a sidebar whose drops move tasks on board.
func NewSidebar(board Board) *Sidebar {
	return &Sidebar{
		Active: domain.Inbox,
		OnTaskDrop: func(ctx context.Context, id string, c domain.Category) error {
			_, err := board.Move(ctx, id, c)
			return err
		},
	}
}

// Entry is one rendered sidebar button.
type Entry struct {
	Category domain.Category
	Label    string
	Count    int
	Active   bool
}

// Select makes c the active category.
func (sb *Sidebar) Select(c domain.Category) {
	if !c.Valid() {
		return
	}
	sb.Active = c
	if sb.OnCategoryChange != nil {
		sb.OnCategoryChange(c)
	}
}

// Entries lists the buttons in order with their badge counts.
func (sb *Sidebar) Entries(counts Counter) []Entry {
	var cs map[domain.Category]int
	if counts != nil {
		cs = counts.Counts()
	}
	out := make([]Entry, len(domain.Categories))
	for i, c := range domain.Categories {
		out[i] = Entry{Category: c, Label: c.Label(), Count: cs[c], Active: c == sb.Active}
	}
	return out
}

func (sb *Sidebar) drop(ctx context.Context, id string, c domain.Category) error {
	if sb.OnTaskDrop == nil {
		return nil
	}
	return sb.OnTaskDrop(ctx, id, c)
}
