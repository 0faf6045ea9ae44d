package board

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/alexalex89/task-management/domain"
)

// Store owns the task collection. Every mutation is followed by a persist of
// the whole collection. A failed persist is logged and returned, but the
// in-memory change stands.
type Store struct {
	mu        sync.Mutex
	tasks     []domain.Task
	nextOrder int

	persister Persister
	key       string
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *log.Logger) Option { return func(s *Store) { s.logger = l } }

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option { return func(s *Store) { s.newID = gen } }

// WithKey stores the collection under a key other than StorageKey.
func WithKey(key string) Option { return func(s *Store) { s.key = key } }

// Open loads the collection once from p. Nothing stored yet means an empty
// board. Records that need repair are loaded and the repair is logged.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		key:       StorageKey,
		logger:    log.StandardLogger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, ok, err := p.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !ok || len(data) == 0 {
		return s, nil
	}
	tasks, problems, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	for _, prob := range problems {
		s.logger.WithFields(log.Fields{"key": s.key}).Warnf("repaired stored task: %v", prob)
	}

	taken := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		taken[tasks[i].ID] = struct{}{}
	}
	kept := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		if _, dup := kept[tasks[i].ID]; dup || tasks[i].ID == "" {
			old := tasks[i].ID
			tasks[i].ID = s.uniqueIDLocked(taken)
			taken[tasks[i].ID] = struct{}{}
			s.logger.WithFields(log.Fields{"old_id": old, "new_id": tasks[i].ID}).Warn("reassigned missing or duplicate task id")
		}
		kept[tasks[i].ID] = struct{}{}
		if tasks[i].Order >= s.nextOrder {
			s.nextOrder = tasks[i].Order + 1
		}
	}
	s.tasks = tasks
	s.logger.WithFields(log.Fields{"key": s.key, "tasks": len(tasks)}).Debug("tasks loaded")
	return s, nil
}

// Create files a new task. A blank title is rejected silently: no task, no
// error and nothing is persisted.
func (s *Store) Create(ctx context.Context, form domain.FormData) (*domain.Task, error) {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return nil, nil
	}
	category, err := normalizeCategory(form.Category)
	if err != nil {
		return nil, err
	}
	if !form.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, form.Priority)
	}
	due, err := domain.ParseOptionalDate(form.DueDate)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := domain.Task{
		ID:          s.uniqueIDLocked(nil),
		Title:       title,
		Description: form.Description,
		Category:    category,
		Priority:    form.Priority,
		DueDate:     due,
		CreatedAt:   s.now(),
		Order:       s.nextOrder,
	}
	s.nextOrder++
	s.tasks = append(s.tasks, t)

	out := t.Clone()
	return &out, s.persistLocked(ctx, "create")
}

// Update merges the non-nil fields of patch into the task. Unknown ids are a
// no-op.
func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, *patch.Category)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, *patch.Priority)
	}

	return s.mutate(ctx, "update", id, func(t *domain.Task) {
		if patch.Title != nil {
			t.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			d := *patch.DueDate
			t.DueDate = &d
		}
		if patch.ClearDueDate {
			t.DueDate = nil
		}
		if patch.Order != nil {
			t.Order = *patch.Order
			if t.Order >= s.nextOrder {
				s.nextOrder = t.Order + 1
			}
		}
		if patch.Completed != nil {
			t.SetCompleted(*patch.Completed, s.now())
		}
	})
}

// Edit replaces the five editable fields. An empty DueDate clears the date.
func (s *Store) Edit(ctx context.Context, data domain.EditData) (*domain.Task, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	category, err := normalizeCategory(data.Category)
	if err != nil {
		return nil, err
	}
	if !data.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, data.Priority)
	}
	due, err := domain.ParseOptionalDate(data.DueDate)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, "edit", data.ID, func(t *domain.Task) {
		t.Title = title
		t.Description = data.Description
		t.Category = category
		t.Priority = data.Priority
		t.DueDate = due
	})
}

// ToggleComplete flips completion and sets or clears CompletedAt.
func (s *Store) ToggleComplete(ctx context.Context, id string) (*domain.Task, error) {
	return s.mutate(ctx, "toggle", id, func(t *domain.Task) {
		t.SetCompleted(!t.Completed, s.now())
	})
}

// Move files the task under category. Order is left alone.
func (s *Store) Move(ctx context.Context, id string, category domain.Category) (*domain.Task, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}
	return s.mutate(ctx, "move", id, func(t *domain.Task) {
		t.Category = category
	})
}

// Delete removes the task permanently and returns it. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return &removed, s.persistLocked(ctx, "delete")
}

// Reorder sets order to the position in ids for every task of category that
// ids names. Tasks of the category missing from ids keep their order, so
// callers should pass the full sequence.
func (s *Store) Reorder(ctx context.Context, category domain.Category, ids []string) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].Category != category {
			continue
		}
		if p, ok := pos[s.tasks[i].ID]; ok {
			s.tasks[i].Order = p
			if p >= s.nextOrder {
				s.nextOrder = p + 1
			}
		}
	}
	return s.persistLocked(ctx, "reorder")
}

func (s *Store) mutate(ctx context.Context, op, id string, fn func(*domain.Task)) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	fn(&s.tasks[i])
	out := s.tasks[i].Clone()
	return &out, s.persistLocked(ctx, op)
}

func (s *Store) persistLocked(ctx context.Context, op string) error {
	data, err := encodeSnapshot(s.tasks)
	if err == nil {
		err = s.persister.Save(ctx, s.key, data)
	}
	if err != nil {
		s.logger.WithFields(log.Fields{
			"key":   s.key,
			"op":    op,
			"tasks": len(s.tasks),
			"error": err.Error(),
		}).Error("persist tasks failed")
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueIDLocked draws ids until one is unused. seen, when non-nil, is
// consulted instead of the live collection.
func (s *Store) uniqueIDLocked(seen map[string]struct{}) string {
	for {
		id := s.newID()
		if seen != nil {
			if _, ok := seen[id]; !ok && id != "" {
				return id
			}
			continue
		}
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
}

func normalizeCategory(c domain.Category) (domain.Category, error) {
	if c == "" {
		return domain.Inbox, nil
	}
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCategory, c)
	}
	return c, nil
}
