package board

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/alexalex89/task-management/domain"
)

// StorageKey is the fixed key the whole collection is stored under.
const StorageKey = "gtd-tasks"

// Persister stores the serialized collection under a single key.
type Persister interface {
	// Load returns ok=false when nothing has been stored under key yet.
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

// record is the tolerant on-disk shape. Dates arrive as strings and order may
// be missing in snapshots written by older clients.
type record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	CreatedAt   string `json:"createdAt"`
	CompletedAt string `json:"completedAt"`
	Order       *int   `json:"order"`
}

func encodeSnapshot(tasks []domain.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return sonic.ConfigStd.Marshal(tasks)
}

func decodeSnapshot(data []byte) ([]domain.Task, []error, error) {
	var recs []record
	if err := sonic.ConfigStd.Unmarshal(data, &recs); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	tasks := make([]domain.Task, 0, len(recs))
	var problems []error
	for i, r := range recs {
		t, errs := r.task()
		for _, err := range errs {
			problems = append(problems, fmt.Errorf("record %d (%s): %w", i, r.ID, err))
		}
		tasks = append(tasks, t)
	}
	return tasks, problems, nil
}

// task converts a record, repairing what it can. The returned errors describe
// repaired fields and never prevent the task from loading.
func (r record) task() (domain.Task, []error) {
	var errs []error
	t := domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Completed:   r.Completed,
		Priority:    domain.Priority(r.Priority),
	}
	if r.Order != nil {
		t.Order = *r.Order
	}
	if !t.Category.Valid() {
		errs = append(errs, fmt.Errorf("%w %q, filed into inbox", domain.ErrInvalidCategory, r.Category))
		t.Category = domain.Inbox
	}
	if !t.Priority.Valid() {
		errs = append(errs, fmt.Errorf("%w %q, cleared", domain.ErrInvalidPriority, r.Priority))
		t.Priority = domain.PriorityNone
	}
	if r.CreatedAt != "" {
		at, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("createdAt: %w", err))
		} else {
			t.CreatedAt = at
		}
	}
	if r.DueDate != "" {
		d, err := domain.ParseDate(r.DueDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("dueDate: %w", err))
		} else {
			t.DueDate = &d
		}
	}
	if r.CompletedAt != "" && t.Completed {
		at, err := time.Parse(time.RFC3339Nano, r.CompletedAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("completedAt: %w", err))
		} else {
			t.CompletedAt = &at
		}
	}
	if t.Completed && t.CompletedAt == nil {
		at := t.CreatedAt
		t.CompletedAt = &at
	}
	return t, errs
}
