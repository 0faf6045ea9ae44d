package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alexalex89/task-management/domain"
)

var (
	// ErrNotFound means no task has the requested id.
	ErrNotFound = errors.New("task not found")
	// ErrInvalid wraps rows the table constraints rejected.
	ErrInvalid = errors.New("invalid task")
)

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository runs the task queries of the REST API.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const taskColumns = `id, title, description, category, completed, priority, due_date, order_index, created_at, completed_at, updated_at`

func (r *Repository) ListTasks(ctx context.Context, category domain.Category) ([]domain.TaskRow, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY category, order_index, created_at DESC`
	var args []any
	if category != "" {
		query = `SELECT ` + taskColumns + ` FROM tasks WHERE category = $1 ORDER BY order_index, created_at DESC`
		args = append(args, string(category))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TaskRow, 0)
	for rows.Next() {
		row, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateTask(ctx context.Context, in domain.TaskInput) (domain.TaskRow, error) {
	const query = `
INSERT INTO tasks (title, description, category, priority, due_date, order_index)
VALUES ($1, $2, $3, $4, $5,
        (SELECT COALESCE(MAX(order_index), -1) + 1 FROM tasks WHERE category = $3))
RETURNING ` + taskColumns
	desc, prio, due := inputArgs(in)
	row, err := scanTask(r.db.QueryRow(ctx, query, in.Title, desc, string(in.Category), prio, due))
	if err != nil {
		return domain.TaskRow{}, mapError("create task", err)
	}
	return row, nil
}

func (r *Repository) UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (domain.TaskRow, error) {
	const query = `
UPDATE tasks
SET title = $1, description = $2, category = $3, priority = $4, due_date = $5, updated_at = CURRENT_TIMESTAMP
WHERE id = $6
RETURNING ` + taskColumns
	desc, prio, due := inputArgs(in)
	row, err := scanTask(r.db.QueryRow(ctx, query, in.Title, desc, string(in.Category), prio, due, id))
	if err != nil {
		return domain.TaskRow{}, mapError("update task", err)
	}
	return row, nil
}

func (r *Repository) ToggleTask(ctx context.Context, id int64) (domain.TaskRow, error) {
	const query = `
UPDATE tasks
SET completed = NOT completed,
    completed_at = CASE WHEN completed THEN NULL ELSE CURRENT_TIMESTAMP END,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING ` + taskColumns
	row, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.TaskRow{}, mapError("toggle task", err)
	}
	return row, nil
}

func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return mapError("delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderTasks sets order_index to each id's position. Ids outside category
// are skipped. All updates commit together.
func (r *Repository) ReorderTasks(ctx context.Context, category domain.Category, ids []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const query = `UPDATE tasks SET order_index = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND category = $3`
	for i, id := range ids {
		if _, err := tx.Exec(ctx, query, i, id, string(category)); err != nil {
			return mapError("reorder tasks", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

func (r *Repository) Stats(ctx context.Context) ([]domain.CategoryStats, error) {
	const query = `
SELECT category,
       COUNT(*) AS total,
       COUNT(*) FILTER (WHERE completed = true) AS completed,
       COUNT(*) FILTER (WHERE completed = false) AS pending
FROM tasks
GROUP BY category
ORDER BY category`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CategoryStats, 0, len(domain.Categories))
	for rows.Next() {
		var (
			s   domain.CategoryStats
			cat string
		)
		if err := rows.Scan(&cat, &s.Total, &s.Completed, &s.Pending); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		s.Category = domain.Category(cat)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	return out, nil
}

func scanTask(row pgx.Row) (domain.TaskRow, error) {
	var (
		t        domain.TaskRow
		category string
		priority *string
		due      *time.Time
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &category, &t.Completed, &priority,
		&due, &t.OrderIndex, &t.CreatedAt, &t.CompletedAt, &t.UpdatedAt)
	if err != nil {
		return domain.TaskRow{}, err
	}
	t.Category = domain.Category(category)
	if priority != nil {
		p := domain.Priority(*priority)
		t.Priority = &p
	}
	if due != nil {
		d := domain.DateOf(*due)
		t.DueDate = &d
	}
	return t, nil
}

func inputArgs(in domain.TaskInput) (desc, prio *string, due *time.Time) {
	if in.Description != "" {
		desc = &in.Description
	}
	if in.Priority != domain.PriorityNone {
		p := string(in.Priority)
		prio = &p
	}
	if in.DueDate != nil && !in.DueDate.IsZero() {
		d := in.DueDate.Time()
		due = &d
	}
	return desc, prio, due
}

func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation, pgerrcode.StringDataRightTruncationDataException, pgerrcode.NotNullViolation:
			return fmt.Errorf("%w: %s", ErrInvalid, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
