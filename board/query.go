package board

import "github.com/alexalex89/task-management/domain"

// ByCategory is the display projection of one category: priority first, then
// newest, then explicit order.
func (s *Store) ByCategory(c domain.Category) []domain.Task {
	out := s.filter(func(t domain.Task) bool { return t.Category == c })
	domain.SortTasks(out, domain.ByPriority)
	return out
}

// ByOrder lists one category by explicit order only. It is not the display
// order; it shows the sequence a reorder wrote.
func (s *Store) ByOrder(c domain.Category) []domain.Task {
	out := s.filter(func(t domain.Task) bool { return t.Category == c })
	domain.SortTasks(out, domain.ByOrder)
	return out
}

// Get returns a copy of the task with id.
func (s *Store) Get(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return domain.Task{}, false
}

// All returns every task in insertion order.
func (s *Store) All() []domain.Task {
	return s.filter(func(domain.Task) bool { return true })
}

func (s *Store) Completed() []domain.Task {
	return s.filter(func(t domain.Task) bool { return t.Completed })
}

func (s *Store) Active() []domain.Task {
	return s.filter(func(t domain.Task) bool { return !t.Completed })
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Counts returns the badge count of every category, zero counts included.
func (s *Store) Counts() map[domain.Category]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		counts[c] = 0
	}
	for _, t := range s.tasks {
		counts[t.Category]++
	}
	return counts
}

// Stats summarizes every category in sidebar order.
func (s *Store) Stats() []domain.CategoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := make(map[domain.Category]int, len(domain.Categories))
	stats := make([]domain.CategoryStats, len(domain.Categories))
	for i, c := range domain.Categories {
		idx[c] = i
		stats[i].Category = c
	}
	for _, t := range s.tasks {
		st := &stats[idx[t.Category]]
		st.Total++
		if t.Completed {
			st.Completed++
		} else {
			st.Pending++
		}
	}
	return stats
}

func (s *Store) filter(keep func(domain.Task) bool) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}
