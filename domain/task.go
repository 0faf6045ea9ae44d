package domain

import "time"

// Task is a single item on the board.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Category    Category   `json:"category" yaml:"category"`
	Completed   bool       `json:"completed" yaml:"completed"`
	Priority    Priority   `json:"priority,omitempty" yaml:"priority,omitempty"`
	DueDate     *Date      `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Order       int        `json:"order" yaml:"order"`
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		out.CompletedAt = &c
	}
	return out
}

// SetCompleted changes the completion flag and keeps CompletedAt in step with it.
func (t *Task) SetCompleted(done bool, now time.Time) {
	if t.Completed == done {
		return
	}
	t.Completed = done
	if done {
		at := now
		t.CompletedAt = &at
		return
	}
	t.CompletedAt = nil
}

// FormData is what the add form submits.
type FormData struct {
	Title       string
	Description string
	Category    Category
	Priority    Priority
	// DueDate is YYYY-MM-DD or an ISO timestamp; empty means none.
	DueDate string
}

// EditData carries the fixed set of editable fields for one task.
type EditData struct {
	ID          string
	Title       string
	Description string
	Category    Category
	Priority    Priority
	DueDate     string
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Category    *Category
	Completed   *bool
	Priority    *Priority
	DueDate     *Date
	// ClearDueDate removes the due date; it wins over DueDate.
	ClearDueDate bool
	Order        *int
}

// CategoryStats summarizes one category.
type CategoryStats struct {
	Category  Category `json:"category" yaml:"category"`
	Total     int      `json:"total" yaml:"total"`
	Completed int      `json:"completed" yaml:"completed"`
	Pending   int      `json:"pending" yaml:"pending"`
}
