package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TaskList maps task ids to tasks and remembers insertion order.
// The zero value is an empty list ready to use.
type TaskList struct {
	order []string
	items map[string]Task
}

// NewTaskList builds a list holding tasks in the given order.
func NewTaskList(tasks ...Task) *TaskList {
	l := &TaskList{}
	for _, task := range tasks {
		l.Put(task)
	}
	return l
}

func (l *TaskList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

func (l *TaskList) Get(id string) (Task, bool) {
	if l == nil {
		return Task{}, false
	}
	task, ok := l.items[id]
	return task, ok
}

func (l *TaskList) Has(id string) bool {
	_, ok := l.Get(id)
	return ok
}

// Put inserts the task at the end, or replaces it in place when the id already exists.
func (l *TaskList) Put(task Task) {
	if l.items == nil {
		l.items = make(map[string]Task)
	}
	if _, exists := l.items[task.ID]; !exists {
		l.order = append(l.order, task.ID)
	}
	l.items[task.ID] = task
}

// Delete removes the task and reports whether it was present.
func (l *TaskList) Delete(id string) bool {
	if !l.Has(id) {
		return false
	}
	delete(l.items, id)
	for i, key := range l.order {
		if key == id {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// IDs returns task ids in insertion order.
func (l *TaskList) IDs() []string {
	ids := make([]string, 0, l.Len())
	if l != nil {
		ids = append(ids, l.order...)
	}
	return ids
}

// Tasks returns a copy of every task in insertion order.
func (l *TaskList) Tasks() []Task {
	tasks := make([]Task, 0, l.Len())
	if l == nil {
		return tasks
	}
	for _, id := range l.order {
		tasks = append(tasks, l.items[id])
	}
	return tasks
}

// Filter returns the tasks of one category in insertion order.
func (l *TaskList) Filter(category Category) []Task {
	tasks := make([]Task, 0)
	if l == nil {
		return tasks
	}
	for _, id := range l.order {
		if task := l.items[id]; task.Category == category {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// Clone returns an independent copy of the list.
func (l *TaskList) Clone() *TaskList {
	clone := &TaskList{
		order: make([]string, 0, l.Len()),
		items: make(map[string]Task, l.Len()),
	}
	if l == nil {
		return clone
	}
	clone.order = append(clone.order, l.order...)
	for id, task := range l.items {
		clone.items[id] = task
	}
	return clone
}

// MarshalJSON writes the list as a JSON object keyed by task id, in insertion order.
func (l *TaskList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, task := range l.Tasks() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(task.ID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(task)
		if err != nil {
			return nil, fmt.Errorf("marshal task %s: %w", task.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keyed by task id and keeps the document order.
// A JSON null yields an empty list.
func (l *TaskList) UnmarshalJSON(data []byte) error {
	*l = TaskList{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode task list: %w", err)
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode task list: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode task list: %w", err)
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode task list: unexpected key %v", keyTok)
		}
		var task Task
		if err := dec.Decode(&task); err != nil {
			return fmt.Errorf("decode task %s: %w", id, err)
		}
		task.ID = id
		l.Put(task)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode task list: %w", err)
	}
	return nil
}
