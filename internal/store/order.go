package store

import (
	"sort"

	"kanban-cli/internal/model"
)

// SortTasks sorts tasks in place by position. Equal positions keep their current
// relative order, so the task list doubles as the insertion-order tie-breaker.
func SortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})
}

// OrderedTasks returns a sorted copy of the column's tasks; the column is untouched.
func OrderedTasks(col model.Column) []model.Task {
	out := append([]model.Task(nil), col.Tasks...)
	SortTasks(out)
	return out
}

// IndexOfTask returns the display index of taskID within col, or -1.
func IndexOfTask(col model.Column, taskID model.ID) int {
	for i, t := range OrderedTasks(col) {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

func positions(tasks []model.Task) []float64 {
	out := make([]float64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Position)
	}
	return out
}
