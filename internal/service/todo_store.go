package service

import (
	"context"
	"fmt"
	"sync"

	"todo-keeper/internal/model"
)

// TodoStore owns one task list and its active category, and mirrors both to a
// KeyValueStore. Every mutation writes first and swaps the in-memory state only
// after the write succeeded, so a PersistenceError leaves memory untouched.
//
// Renames are the exception: RenameTask changes memory only and the text is
// written by the next persisted mutation (normally ToggleEditing) or Flush.
type TodoStore struct {
	kv  KeyValueStore
	ids IDGenerator

	mu     sync.Mutex
	tasks  *model.TaskList
	active model.Category
	dirty  bool
}

// Option configures a TodoStore.
type Option func(*TodoStore)

// WithIDGenerator replaces the default UUIDv7 id source.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *TodoStore) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// NewTodoStore returns a store in first-run state. Call Initialize to load
// what the KeyValueStore already holds.
func NewTodoStore(kv KeyValueStore, opts ...Option) *TodoStore {
	s := &TodoStore{
		kv:     kv,
		ids:    UUIDv7Generator{},
		tasks:  model.NewTaskList(),
		active: model.DefaultCategory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads both entries. Absent entries are the first-run case and
// yield an empty list and the Work category.
func (s *TodoStore) Initialize(ctx context.Context) (*model.TaskList, model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := model.NewTaskList()
	raw, ok, err := s.kv.Get(ctx, KeyTasks)
	if err != nil {
		return nil, "", &PersistenceError{Op: "get", Key: KeyTasks, Err: err}
	}
	if ok {
		if tasks, err = decodeTasks(raw); err != nil {
			return nil, "", &PersistenceError{Op: "decode", Key: KeyTasks, Err: err}
		}
	}

	active := model.DefaultCategory
	raw, ok, err = s.kv.Get(ctx, KeyActiveCategory)
	if err != nil {
		return nil, "", &PersistenceError{Op: "get", Key: KeyActiveCategory, Err: err}
	}
	if ok {
		if active, err = decodeCategory(raw); err != nil {
			return nil, "", &PersistenceError{Op: "decode", Key: KeyActiveCategory, Err: err}
		}
	}

	s.tasks = tasks
	s.active = active
	s.dirty = false
	return s.tasks.Clone(), s.active, nil
}

func (s *TodoStore) SetActiveCategory(ctx context.Context, category model.Category) (model.Category, error) {
	if !category.Valid() {
		return "", &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, KeyActiveCategory, encodeCategory(category)); err != nil {
		return "", &PersistenceError{Op: "set", Key: KeyActiveCategory, Err: err}
	}
	s.active = category
	return s.active, nil
}

// AddTask appends a new task. Empty text is ignored without a write; the text
// is otherwise kept exactly as given.
func (s *TodoStore) AddTask(ctx context.Context, text string, category model.Category) (*model.TaskList, error) {
	if !category.Valid() {
		return nil, &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		return s.tasks.Clone(), nil
	}

	next := s.tasks.Clone()
	id, err := s.newID(next)
	if err != nil {
		return nil, err
	}
	next.Put(model.Task{
		ID:       id,
		Text:     text,
		Category: category,
	})
	return s.commit(ctx, next)
}

func (s *TodoStore) ToggleDone(ctx context.Context, id string) (*model.TaskList, error) {
	return s.update(ctx, id, func(task *model.Task) {
		task.IsDone = !task.IsDone
	})
}

// ToggleEditing flips the editing flag. Leaving edit mode is the save gesture,
// so any pending rename is written along with it.
func (s *TodoStore) ToggleEditing(ctx context.Context, id string) (*model.TaskList, error) {
	return s.update(ctx, id, func(task *model.Task) {
		task.IsEditing = !task.IsEditing
	})
}

// RenameTask changes the text in memory only; see Flush.
func (s *TodoStore) RenameTask(id, text string) (*model.TaskList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if task.Text != text {
		task.Text = text
		s.tasks.Put(task)
		s.dirty = true
	}
	return s.tasks.Clone(), nil
}

// DeleteTask removes the task when present. An unknown id is not an error.
func (s *TodoStore) DeleteTask(ctx context.Context, id string) (*model.TaskList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tasks.Has(id) {
		return s.tasks.Clone(), nil
	}
	next := s.tasks.Clone()
	next.Delete(id)
	return s.commit(ctx, next)
}

// ClearAll erases every persisted entry and resets to first-run state.
func (s *TodoStore) ClearAll(ctx context.Context) (*model.TaskList, model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(ctx); err != nil {
		return nil, "", &PersistenceError{Op: "clear", Err: err}
	}
	s.tasks = model.NewTaskList()
	s.active = model.DefaultCategory
	s.dirty = false
	return s.tasks.Clone(), s.active, nil
}

// VisibleTasks returns the tasks of one category in list order.
func (s *TodoStore) VisibleTasks(category model.Category) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Filter(category)
}

// Flush writes a list holding unsaved renames.
func (s *TodoStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	_, err := s.commit(ctx, s.tasks.Clone())
	return err
}

// Dirty reports whether renames are waiting to be written.
func (s *TodoStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *TodoStore) Tasks() *model.TaskList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Clone()
}

func (s *TodoStore) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Get(id)
}

func (s *TodoStore) ActiveCategory() model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Counts returns how many tasks the category holds and how many are done.
func (s *TodoStore) Counts(category model.Category) (total, done int) {
	for _, task := range s.VisibleTasks(category) {
		total++
		if task.IsDone {
			done++
		}
	}
	return total, done
}

func (s *TodoStore) update(ctx context.Context, id string, mutate func(*model.Task)) (*model.TaskList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	next := s.tasks.Clone()
	mutate(&task)
	next.Put(task)
	return s.commit(ctx, next)
}

// commit persists next and makes it current. Callers hold s.mu.
func (s *TodoStore) commit(ctx context.Context, next *model.TaskList) (*model.TaskList, error) {
	raw, err := encodeTasks(next)
	if err != nil {
		return nil, &PersistenceError{Op: "encode", Key: KeyTasks, Err: err}
	}
	if err := s.kv.Set(ctx, KeyTasks, raw); err != nil {
		return nil, &PersistenceError{Op: "set", Key: KeyTasks, Err: err}
	}
	s.tasks = next
	s.dirty = false
	return s.tasks.Clone(), nil
}

const maxIDAttempts = 16

func (s *TodoStore) newID(list *model.TaskList) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		if id := s.ids.NewID(); id != "" && !list.Has(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate task id: no unused id after %d attempts", maxIDAttempts)
}
