package taskset

import "github.com/stafflow/stafflow/engine/core"

// WorkingSet holds the tasks of one editing session. It is owned by exactly
// one session; no locking. Update operations are total and idempotent:
// absent ids are skipped silently and re-applying a patch leaves the state
// unchanged.
type WorkingSet struct {
	order []core.ID
	tasks map[core.ID]*ConfigurableTask
}

func NewWorkingSet(tasks ...*ConfigurableTask) *WorkingSet {
	ws := &WorkingSet{tasks: make(map[core.ID]*ConfigurableTask, len(tasks))}
	for _, t := range tasks {
		ws.Add(t)
	}
	return ws
}

// Add appends a task, replacing an existing task with the same id in place.
func (w *WorkingSet) Add(t *ConfigurableTask) {
	if t == nil || t.ID.IsZero() {
		return
	}
	if _, ok := w.tasks[t.ID]; !ok {
		w.order = append(w.order, t.ID)
	}
	w.tasks[t.ID] = t
}

func (w *WorkingSet) Get(id core.ID) (*ConfigurableTask, bool) {
	t, ok := w.tasks[id]
	return t, ok
}

func (w *WorkingSet) Len() int {
	return len(w.order)
}

// Tasks returns the tasks in insertion order.
func (w *WorkingSet) Tasks() []*ConfigurableTask {
	out := make([]*ConfigurableTask, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.tasks[id])
	}
	return out
}

// Selected returns the tasks currently marked for confirmation.
func (w *WorkingSet) Selected() []*ConfigurableTask {
	var out []*ConfigurableTask
	for _, id := range w.order {
		if t := w.tasks[id]; t.IsSelected {
			out = append(out, t)
		}
	}
	return out
}

// UpdateOne applies the patch to the task with the given id. Absent ids are
// a no-op, not an error.
func (w *WorkingSet) UpdateOne(id core.ID, patch *Patch) {
	if patch == nil {
		return
	}
	if t, ok := w.tasks[id]; ok {
		patch.ApplyTo(t)
	}
}

// UpdateMany applies the patch to every id in the set, skipping absentees.
func (w *WorkingSet) UpdateMany(ids []core.ID, patch *Patch) {
	if patch == nil {
		return
	}
	for _, id := range ids {
		if t, ok := w.tasks[id]; ok {
			patch.ApplyTo(t)
		}
	}
}

// Reset discards all tasks; used when an editing session is abandoned.
func (w *WorkingSet) Reset() {
	w.order = nil
	w.tasks = make(map[core.ID]*ConfigurableTask)
}
