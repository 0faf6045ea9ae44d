package domain

import "sort"

// ByPriority is the display order of a category: priority rank descending,
// newest first, then explicit order, then id so that the order is total.
func ByPriority(a, b Task) bool {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.ID < b.ID
}

// ByOrder sorts on the explicit order alone, with creation time and id as
// tie-breaks.
func ByOrder(a, b Task) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortTasks sorts tasks in place with less.
func SortTasks(tasks []Task, less func(a, b Task) bool) {
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
}

// IDs returns the task ids in slice order.
func IDs(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].ID
	}
	return out
}
